// Package event реализует синхронную шину событий внутри процесса.
package event

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Event описывает одно уведомление.
type Event struct {
	// Topic - имя события.
	Topic string

	// Payload - данные события, тип зависит от Topic.
	Payload any
}

// Handler обрабатывает событие.
type Handler func(Event)

// anyTopic помечает подписку на все темы.
const anyTopic = ""

type subscription struct {
	topic   string
	handler Handler
}

// Bus - шина событий в памяти.
// Publish синхронный: обработчики выполняются в горутине вызывающего
// в порядке подписки, сначала подписчики темы, затем подписчики всех тем.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	logger *zap.Logger
}

// NewBus создаёт шину. nil logger заменяется на zap.NewNop.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger}
}

// Publish доставляет событие подписчикам. Подписки, изменённые во время
// доставки, вступают в силу со следующего события.
func (b *Bus) Publish(ev Event) {
	for _, s := range b.recipients(ev.Topic) {
		b.deliver(s, ev)
	}
}

// Subscribe регистрирует обработчик для темы. Возвращает функцию отписки,
// повторный вызов которой ничего не делает.
func (b *Bus) Subscribe(topic string, handler Handler) (unsubscribe func()) {
	return b.add(&subscription{topic: topic, handler: handler})
}

// SubscribeAll регистрирует обработчик для всех тем.
func (b *Bus) SubscribeAll(handler Handler) (unsubscribe func()) {
	return b.add(&subscription{topic: anyTopic, handler: handler})
}

func (b *Bus) add(s *subscription) func() {
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.subs = slices.DeleteFunc(b.subs, func(x *subscription) bool { return x == s })
			b.mu.Unlock()
		})
	}
}

// recipients возвращает снимок подписок, которым адресовано событие темы.
func (b *Bus) recipients(topic string) []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.topic == topic && topic != anyTopic {
			out = append(out, s)
		}
	}
	for _, s := range b.subs {
		if s.topic == anyTopic {
			out = append(out, s)
		}
	}
	return out
}

// deliver вызывает обработчик. Паника логируется и не мешает остальным.
func (b *Bus) deliver(s *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("обработчик события завершился паникой",
				zap.String("topic", ev.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	s.handler(ev)
}
