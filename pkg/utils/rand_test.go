package utils

import (
	"testing"
	"time"
)

func TestNewRandSource(t *testing.T) {
	rng1 := NewRandSource(12345)
	if rng1 == nil {
		t.Fatal("Expected RandSource to be created")
	}

	// Zero seed falls back to the current time
	rng2 := NewRandSource(0)
	if rng2 == nil {
		t.Fatal("Expected RandSource to be created with zero seed")
	}
}

func TestRandSourceFloat64(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		val := rng.Float64()
		if val < 0 || val >= 1.0 {
			t.Errorf("Float64() returned value outside [0, 1): %f", val)
		}
	}
}

func TestRandSourceIntn(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		val := rng.Intn(7)
		if val < 0 || val >= 7 {
			t.Errorf("Intn(7) returned value outside [0, 7): %d", val)
		}
	}
}

func TestRandSourceUniformDuration(t *testing.T) {
	rng := NewRandSource(7)
	for i := 0; i < 100; i++ {
		d := rng.UniformDuration(time.Second, 3*time.Second)
		if d < time.Second || d >= 3*time.Second {
			t.Errorf("UniformDuration returned %v outside [1s, 3s)", d)
		}
	}
	if d := rng.UniformDuration(2*time.Second, time.Second); d != 2*time.Second {
		t.Errorf("inverted bounds should return min, got %v", d)
	}
}

func TestDeterministicBehavior(t *testing.T) {
	rng1 := NewRandSource(999)
	rng2 := NewRandSource(999)

	for i := 0; i < 10; i++ {
		if rng1.Intn(1000) != rng2.Intn(1000) {
			t.Fatal("Same seed should produce same sequence")
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	rng := NewRandSource(12345)
	const numGoroutines = 50

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = rng.Float64()
				_ = rng.Intn(100)
				_ = rng.UniformDuration(0, time.Second)
			}
			done <- true
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}
}
