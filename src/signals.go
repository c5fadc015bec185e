package queries

import (
	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-signals"
)

// SignalSave is sent around inserting a model.
type SignalSave struct {
	Instance any
	Meta     *models.Meta
	Session  *Session
}

var (
	signalPool = signals.NewPool[SignalSave]()

	// Sent before a pending model is inserted, an error aborts the flush.
	SignalPreModelCreate = signalPool.Get("queries.model.pre_create")

	// Sent after a model was inserted and its columns were read back.
	SignalPostModelCreate = signalPool.Get("queries.model.post_create")
)

func sendSignal(s signals.Signal[SignalSave], sess *Session, meta *models.Meta, obj any) error {
	return s.Send(SignalSave{
		Instance: obj,
		Meta:     meta,
		Session:  sess,
	})
}
