// Package reconcile owns a user's in-memory forest and runs every mutation
// through the optimistic protocol: validate and apply locally, call the
// remote, then commit or restore the before-image of the touched nodes.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	svc "idealite/internal/domain/services/workspace"
	"idealite/internal/workspace/hierarchy"
	"idealite/internal/workspace/movevalidator"
	"idealite/internal/workspace/mutation"
)

// maxReplans bounds how often a mutation re-plans because the nodes it
// touches changed while it waited for locks.
const maxReplans = 8

// Session is the single owner of one workspace's forest. Reads see an
// immutable snapshot; writers clone, apply and swap. Mutations on the same
// node queue behind each other; mutations on different nodes overlap.
type Session struct {
	engine   *mutation.Engine
	remote   svc.Remote
	notifier Notifier
	logger   *slog.Logger
	hook     TransitionHook

	mu     sync.RWMutex
	forest *models.Forest

	lockMu sync.Mutex
	locks  map[string]*nodeLock
}

type Option func(*Session)

func WithEngine(e *mutation.Engine) Option {
	return func(s *Session) { s.engine = e }
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithTransitionHook observes every state change. The hook runs on the
// mutating goroutine and must not call back into the session.
func WithTransitionHook(h TransitionHook) Option {
	return func(s *Session) { s.hook = h }
}

// NewSession takes ownership of forest.
func NewSession(forest *models.Forest, remote svc.Remote, opts ...Option) *Session {
	if forest == nil {
		forest = models.NewForest()
	}
	s := &Session{
		engine: mutation.NewEngine(),
		remote: remote,
		logger: slog.Default(),
		forest: forest,
		locks:  make(map[string]*nodeLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = &LogNotifier{Logger: s.logger}
	}
	return s
}

// Load fetches the forest from source and opens a session on it.
func Load(ctx context.Context, source svc.ForestSource, remote svc.Remote, opts ...Option) (*Session, error) {
	forest, err := source.FetchForest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load forest: %w", err)
	}
	return NewSession(forest, remote, opts...), nil
}

// Snapshot returns the current forest. It is shared and must not be
// modified.
func (s *Session) Snapshot() *models.Forest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forest
}

// Tree returns the nested active view of the current snapshot.
func (s *Session) Tree() []*models.TreeTag {
	return hierarchy.ActiveTree(s.Snapshot())
}

// LegalDestinations lists where a page may be moved.
func (s *Session) LegalDestinations(pageID string) ([]models.ContainerRef, error) {
	return movevalidator.LegalDestinations(s.Snapshot(), pageID)
}

// PreviewDelete returns the number of pages archiving tagID would affect and
// the confirmation text for it.
func (s *Session) PreviewDelete(tagID string) (int, string, error) {
	in, err := s.engine.DeleteTag(s.Snapshot(), tagID)
	if err != nil {
		return 0, "", err
	}
	return in.ImpactCount, mutation.ImpactMessage(in.ImpactCount), nil
}

func (s *Session) CreatePage(ctx context.Context, c models.ContainerRef, kind models.PageKind) (*models.Page, error) {
	in, err := s.run(ctx, func(f *models.Forest) (*mutation.Intent, error) {
		return s.engine.CreatePage(f, c, kind)
	})
	if err != nil {
		return nil, err
	}
	s.expandAfterCreate(ctx, in)
	return in.Page, nil
}

func (s *Session) CreateFolder(ctx context.Context, tagID string, parentFolderID *string) (*models.Folder, error) {
	in, err := s.run(ctx, func(f *models.Forest) (*mutation.Intent, error) {
		return s.engine.CreateFolder(f, tagID, parentFolderID)
	})
	if err != nil {
		return nil, err
	}
	s.expandAfterCreate(ctx, in)
	return in.Folder, nil
}

// DeleteTag archives tagID and returns the number of pages it archived.
func (s *Session) DeleteTag(ctx context.Context, tagID string) (int, error) {
	in, err := s.run(ctx, func(f *models.Forest) (*mutation.Intent, error) {
		return s.engine.DeleteTag(f, tagID)
	})
	if err != nil {
		return 0, err
	}
	return in.ImpactCount, nil
}

func (s *Session) MovePage(ctx context.Context, pageID string, dest models.ContainerRef) (*models.Page, error) {
	in, err := s.run(ctx, func(f *models.Forest) (*mutation.Intent, error) {
		return s.engine.MovePage(f, pageID, dest)
	})
	if err != nil {
		return nil, err
	}
	return in.Page, nil
}

func (s *Session) SetCollapsed(ctx context.Context, node models.NodeRef, collapsed bool) error {
	_, err := s.run(ctx, func(f *models.Forest) (*mutation.Intent, error) {
		return s.engine.SetCollapsed(f, node, collapsed)
	})
	return err
}

// Toggle flips a tag or folder's collapsed flag. Tags with nothing to show
// are left alone.
func (s *Session) Toggle(ctx context.Context, node models.NodeRef) error {
	_, err := s.run(ctx, func(f *models.Forest) (*mutation.Intent, error) {
		switch node.Kind {
		case models.NodeKindTag:
			t, ok := f.Tag(node.ID)
			if !ok {
				return nil, fmt.Errorf("tag %s: %w", node.ID, domain.ErrContainerNotFound)
			}
			if len(t.ChildIDs) == 0 && len(t.PageIDs) == 0 && len(t.FolderIDs) == 0 {
				return s.engine.SetCollapsed(f, node, t.Collapsed)
			}
			return s.engine.SetCollapsed(f, node, !t.Collapsed)
		case models.NodeKindFolder:
			fo, ok := f.Folder(node.ID)
			if !ok {
				return nil, fmt.Errorf("folder %s: %w", node.ID, domain.ErrContainerNotFound)
			}
			return s.engine.SetCollapsed(f, node, !fo.Collapsed)
		default:
			return nil, &domain.ValidationError{Message: fmt.Sprintf("%s cannot be collapsed", node)}
		}
	})
	return err
}

// expandAfterCreate opens a collapsed folder that just received content. It
// is a separate mutation so a failure here never undoes the create.
func (s *Session) expandAfterCreate(ctx context.Context, in *mutation.Intent) {
	if in.ExpandFolderID == nil {
		return
	}
	if err := s.SetCollapsed(ctx, models.FolderNode(*in.ExpandFolderID), false); err != nil {
		s.logger.Debug("auto-expand failed",
			"folder_id", *in.ExpandFolderID,
			"error", err,
		)
	}
}

// run drives one mutation through Idle → Applying → Committed|RolledBack.
// plan is called with the locks on every node it will touch already held,
// so validation and apply see the same state.
func (s *Session) run(ctx context.Context, plan func(*models.Forest) (*mutation.Intent, error)) (*mutation.Intent, error) {
	in, err := plan(s.Snapshot())
	if err != nil {
		return nil, err
	}

	var keys []string
	for attempt := 0; ; attempt++ {
		keys = lockKeys(in.LockRefs()...)
		if err := s.acquire(ctx, keys); err != nil {
			return nil, fmt.Errorf("%s on %s: %w", in.Op, in.Target, err)
		}

		// Re-plan against the state left by whoever held these nodes before us
		in, err = plan(s.Snapshot())
		if err != nil {
			s.release(keys)
			return nil, err
		}
		if covers(keys, lockKeys(in.LockRefs()...)) {
			break
		}
		s.release(keys)
		if attempt >= maxReplans {
			return nil, fmt.Errorf("%s on %s: touched nodes kept changing", in.Op, in.Target)
		}
	}
	defer s.release(keys)

	if in.NoOp {
		s.transition(in, StateCommitted, nil)
		return in, nil
	}

	s.mu.Lock()
	img := s.forest.Capture(in.Touched...)
	next := s.forest.Clone()
	in.Apply(next)
	s.forest = next
	s.mu.Unlock()
	s.transition(in, StateApplying, nil)

	if err := in.Send(ctx, s.remote); err != nil {
		s.mu.Lock()
		next := s.forest.Clone()
		next.Restore(img)
		s.forest = next
		s.mu.Unlock()
		s.transition(in, StateRolledBack, err)

		s.notifier.Notify(ctx, Notification{
			Op:      in.Op,
			Target:  in.Target,
			Message: mutation.FailureMessage(in.Op),
			Err:     err,
		})
		return nil, err
	}

	s.transition(in, StateCommitted, nil)
	return in, nil
}

func (s *Session) transition(in *mutation.Intent, state State, err error) {
	switch state {
	case StateApplying:
		s.logger.Debug("mutation applied", "op", in.Op, "target", in.Target.String())
	case StateCommitted:
		s.logger.Info("mutation committed", "op", in.Op, "target", in.Target.String(), "no_op", in.NoOp)
	case StateRolledBack:
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelInfo
		}
		s.logger.Log(context.Background(), level, "mutation rolled back",
			"op", in.Op,
			"target", in.Target.String(),
			"error", err,
		)
	}
	if s.hook != nil {
		s.hook(Transition{Op: in.Op, Target: in.Target, State: state, Err: err})
	}
}
