package event

import (
	"testing"
)

func TestBus_PublishToTopic(t *testing.T) {
	b := NewBus(nil)

	var got []string
	b.Subscribe("a", func(ev Event) { got = append(got, "a:"+ev.Payload.(string)) })
	b.Subscribe("b", func(ev Event) { got = append(got, "b:"+ev.Payload.(string)) })

	b.Publish(Event{Topic: "a", Payload: "1"})

	if len(got) != 1 || got[0] != "a:1" {
		t.Errorf("got %v, want [a:1]", got)
	}
}

func TestBus_SubscribeAllRunsAfterTopicHandlers(t *testing.T) {
	b := NewBus(nil)

	var order []string
	b.SubscribeAll(func(ev Event) { order = append(order, "all") })
	b.Subscribe("x", func(ev Event) { order = append(order, "topic") })

	b.Publish(Event{Topic: "x"})

	if len(order) != 2 || order[0] != "topic" || order[1] != "all" {
		t.Errorf("order = %v, want [topic all]", order)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus(nil)

	calls := 0
	unsub := b.Subscribe("x", func(Event) { calls++ })
	unsubAll := b.SubscribeAll(func(Event) { calls++ })

	b.Publish(Event{Topic: "x"})
	unsub()
	unsubAll()
	b.Publish(Event{Topic: "x"})

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestBus_PanicIsRecovered(t *testing.T) {
	b := NewBus(nil)

	reached := false
	b.Subscribe("x", func(Event) { panic("boom") })
	b.Subscribe("x", func(Event) { reached = true })

	b.Publish(Event{Topic: "x"})

	if !reached {
		t.Error("второй обработчик не был вызван после паники")
	}
}

func TestBus_UnsubscribeTwiceKeepsOthers(t *testing.T) {
	b := NewBus(nil)

	var got []string
	unsub := b.Subscribe("x", func(Event) { got = append(got, "first") })
	b.Subscribe("x", func(Event) { got = append(got, "second") })

	unsub()
	unsub()
	b.Publish(Event{Topic: "x"})

	if len(got) != 1 || got[0] != "second" {
		t.Errorf("got %v, want [second]", got)
	}
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	b := NewBus(nil)

	calls := 0
	var unsub func()
	unsub = b.Subscribe("x", func(Event) {
		calls++
		unsub()
	})

	b.Publish(Event{Topic: "x"})
	b.Publish(Event{Topic: "x"})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
