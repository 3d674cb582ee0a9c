package fsm

import "testing"

func TestMachineDefault(t *testing.T) {
	m := New()
	if got := m.State(); got != StateIdle {
		t.Fatalf("state=%s, want %s", got, StateIdle)
	}
}

func TestMachineLifecycleClosed(t *testing.T) {
	m := New()
	for _, step := range []func() error{m.OnConnecting, m.OnOpen, m.OnClosed} {
		if err := step(); err != nil {
			t.Fatalf("transition error: %v", err)
		}
	}
	if got := m.State(); got != StateClosed {
		t.Fatalf("state=%s, want %s", got, StateClosed)
	}
	if !m.State().Terminal() {
		t.Fatal("Terminal()=false, want true")
	}
}

func TestMachineDialFailure(t *testing.T) {
	m := New()
	if err := m.OnConnecting(); err != nil {
		t.Fatalf("OnConnecting error: %v", err)
	}
	if err := m.OnError(); err != nil {
		t.Fatalf("OnError error: %v", err)
	}
	if got := m.State(); got != StateErrored {
		t.Fatalf("state=%s, want %s", got, StateErrored)
	}
}

func TestMachineNoReopen(t *testing.T) {
	m := New()
	_ = m.OnConnecting()
	_ = m.OnOpen()
	_ = m.OnError()

	if err := m.OnOpen(); err == nil {
		t.Fatal("OnOpen after errored error=nil, want non-nil")
	}
	if err := m.OnConnecting(); err == nil {
		t.Fatal("OnConnecting after errored error=nil, want non-nil")
	}
	if err := m.OnClosed(); err == nil {
		t.Fatal("OnClosed after errored error=nil, want non-nil")
	}
	if got := m.State(); got != StateErrored {
		t.Fatalf("state=%s, want %s", got, StateErrored)
	}
}

func TestMachineInvalidFromIdle(t *testing.T) {
	m := New()
	if err := m.OnOpen(); err == nil {
		t.Fatal("OnOpen from idle error=nil, want non-nil")
	}
	if err := m.OnClosed(); err == nil {
		t.Fatal("OnClosed from idle error=nil, want non-nil")
	}
	if !m.Is(StateIdle) {
		t.Fatalf("state=%s, want %s", m.State(), StateIdle)
	}
}
