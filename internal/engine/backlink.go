package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"librarium/internal/domain"
	"librarium/internal/store"
)

// resolveBacklinks determines, for rooms whose route back to the start is
// still unknown, which of their doors returns to the discovering parent.
// Only complete rooms are probed: the edit label must avoid every label the
// room's doors are known to show, or a door leading to a room that truly
// carries the edit value would masquerade as the backlink.
func (e *Engine) resolveBacklinks(ctx context.Context) error {
	for _, r := range e.store.Rooms() {
		if !r.Complete() || r.PathToRoot != nil || r.Parent == store.NoRoom {
			continue
		}
		parent := e.store.Room(r.Parent)
		if parent == nil || parent.PathToRoot == nil {
			continue
		}
		ret, err := e.findReturnDoor(ctx, parent, r, r.ParentDoor)
		if err != nil {
			if errors.Is(err, domain.ErrBacklinkUndetermined) {
				e.logger.Debug("backlink undetermined",
					zap.Int("room", int(r.ID)), zap.Error(err))
				continue
			}
			return err
		}

		r.PathToRoot = domain.Path{ret}.Extend(parent.PathToRoot...)
		parent.SetReverse(r.ParentDoor, ret)
		r.SetReverse(ret, r.ParentDoor)
		e.store.SetDoorRoom(r.ID, ret, parent.ID)
		if err := e.store.RecordDoor(r.ID, ret, parent.Label); err != nil {
			return err
		}
		e.logger.Debug("backlink resolved",
			zap.Int("room", int(r.ID)),
			zap.Int("parent", int(parent.ID)),
			zap.Int("door", int(ret)))
		e.bus.Publish(Event{Type: EventBacklinkResolved, Payload: r.ID})
	}
	return nil
}

// findReturnDoor probes all six doors of child in one batch: walk to
// parent, overwrite its label, step through forwardDoor into child, then
// try one door. The door that comes back showing the overwrite, where the
// overwrite is not a label that door normally shows, is the return door.
func (e *Engine) findReturnDoor(ctx context.Context, parent, child *store.Room, forwardDoor domain.Door) (domain.Door, error) {
	exclude := []domain.Label{parent.Label, child.Label}
	for _, d := range domain.Doors() {
		if l, ok := child.DoorLabel(d); ok {
			exclude = append(exclude, l)
		}
	}
	edit, err := domain.FreeLabel(exclude...)
	if err != nil {
		// every label is taken behind some door; fall back to the minimal
		// exclusion and rely on per-door filtering below
		edit, err = domain.FreeLabel(parent.Label, child.Label)
		if err != nil {
			return 0, err
		}
	}

	base := domain.MovePlan(parent.Path()).Append(domain.Edit(edit), domain.Move(forwardDoor))
	plans := make([]domain.Plan, 0, domain.DoorCount)
	for _, d := range domain.Doors() {
		plans = append(plans, base.Append(domain.Move(d)))
	}
	obs, err := e.probe(ctx, plans)
	if err != nil {
		return 0, err
	}
	for i, o := range obs {
		final, err := o.FinalLabel()
		if err != nil {
			return 0, err
		}
		d := domain.Door(i)
		if known, ok := child.DoorLabel(d); ok && known == edit {
			continue
		}
		if final == edit {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: room %d via parent %d door %d",
		domain.ErrBacklinkUndetermined, child.ID, parent.ID, forwardDoor)
}
