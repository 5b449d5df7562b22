package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAwaitExitReturnsWhenConsumerEnds(t *testing.T) {
	stop := make(chan os.Signal, 1)
	done := make(chan struct{})

	result := make(chan bool, 1)
	go func() { result <- awaitExit(stop, done) }()

	close(done)
	select {
	case consumerEnded := <-result:
		assert.True(t, consumerEnded)
	case <-time.After(time.Second):
		t.Fatal("awaitExit did not return after the consumer loop ended")
	}
}

func TestAwaitExitReturnsOnSignal(t *testing.T) {
	stop := make(chan os.Signal, 1)
	done := make(chan struct{})

	stop <- syscall.SIGTERM
	assert.False(t, awaitExit(stop, done))
}
