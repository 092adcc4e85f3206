package services

import (
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/campus-job-board/internal/domain/events"
	"github.com/maxaizer/campus-job-board/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// EventRecorder logs and counts every domain event synchronously with its
// publication.
type EventRecorder struct {
	bus EventBus.Bus
}

func NewEventRecorder(bus EventBus.Bus) (*EventRecorder, error) {

	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	recorder := &EventRecorder{bus: bus}
	for _, topic := range events.Topics {
		if err := bus.Subscribe(topic, recorder.handlerFor(topic)); err != nil {
			return nil, errors.Wrapf(err, "subscribe to %s", topic)
		}
	}
	return recorder, nil
}

func (r *EventRecorder) handlerFor(topic string) func(event any) {
	return func(event any) {
		metrics.DomainEventsCounter.WithLabelValues(topic).Inc()
		log.WithField("event", topic).Debugf("%+v", event)
	}
}
