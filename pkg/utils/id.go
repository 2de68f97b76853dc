package utils

import "github.com/google/uuid"

// storyIDPrefix marks IDs of story playbacks
const storyIDPrefix = "story-"

// GenerateStoryID generates a story playback ID
func GenerateStoryID() string {
	return storyIDPrefix + uuid.NewString()
}
