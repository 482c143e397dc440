package gossip

import "testing"

func TestRouterPublishFanOut(t *testing.T) {
	router := NewRouter(100, 10)
	received := make(chan Envelope, 1)
	router.Subscribe("head/w1", func(env Envelope) { received <- env })

	if err := router.Publish("peer1", Envelope{Topic: "head/w1", Payload: []byte("hi")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case env := <-received:
		if string(env.Payload) != "hi" {
			t.Fatalf("unexpected payload: %s", env.Payload)
		}
	default:
		t.Fatal("expected subscriber to receive envelope")
	}
}

func TestRouterEnforcesPublishRate(t *testing.T) {
	router := NewRouter(1, 1)
	router.Subscribe("t", func(Envelope) {})

	if err := router.Publish("peer1", Envelope{Topic: "t"}); err != nil {
		t.Fatalf("unexpected error on first publish: %v", err)
	}
	if err := router.Publish("peer1", Envelope{Topic: "t"}); err == nil {
		t.Fatal("expected second immediate publish to exceed rate limit")
	}
}

func TestRouterDispatchRequest(t *testing.T) {
	router := NewRouter(100, 10)
	router.HandleRequests(RRFetchBlob, func(req Request) ([]byte, error) {
		return append([]byte("echo:"), req.Payload...), nil
	})

	req := NewRequest(RRFetchBlob, []byte("abc"))
	if req.ID == "" {
		t.Fatal("expected correlation id to be set")
	}
	resp := router.Dispatch(req)
	if resp.Err != "" {
		t.Fatalf("unexpected error: %s", resp.Err)
	}
	if string(resp.Payload) != "echo:abc" {
		t.Fatalf("unexpected payload: %s", resp.Payload)
	}
	if resp.RequestID != req.ID {
		t.Fatal("expected response to echo request id")
	}
}

func TestRouterDispatchUnknownKind(t *testing.T) {
	router := NewRouter(100, 10)
	resp := router.Dispatch(NewRequest(RRGetWorldHead, nil))
	if resp.Err == "" {
		t.Fatal("expected error for unregistered request kind")
	}
}
