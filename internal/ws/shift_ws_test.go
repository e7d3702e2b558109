package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastDeliversToShiftSubscribers(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{Hub: h, Send: make(chan []byte, 1), ShiftID: "7"}
	other := &Client{Hub: h, Send: make(chan []byte, 1), ShiftID: "8"}
	h.register <- client
	h.register <- other

	h.BroadcastWSMessage(WSMessage{
		EventType: "signup",
		ShiftID:   "7",
		Data:      map[string]interface{}{"agent_id": float64(3)},
	})

	select {
	case payload := <-client.Send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "signup", msg.EventType)
		assert.Equal(t, "7", msg.ShiftID)
	case <-time.After(time.Second):
		t.Fatal("Assinante da escala não recebeu o evento")
	}

	// O assinante de outra escala não recebe nada.
	select {
	case <-other.Send:
		t.Fatal("Evento vazou para outra escala")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastNeverBlocksCaller(t *testing.T) {
	// Hub sem Run: o envio precisa retornar mesmo assim, a requisição que
	// publicou o evento não pode ficar presa.
	h := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.BroadcastWSMessage(WSMessage{EventType: "signup", ShiftID: "1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Envio ao hub bloqueou o chamador")
	}
}
