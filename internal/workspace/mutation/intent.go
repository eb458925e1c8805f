// Package mutation plans workspace tree mutations. Planning is pure: it
// validates against a forest snapshot, assigns identifiers, resolves titles
// and hierarchies, and returns an Intent describing the local change and the
// matching remote call. Nothing is applied until a caller does so.
package mutation

import (
	"context"
	"errors"
	"fmt"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	svc "idealite/internal/domain/services/workspace"
)

// Op names a remote operation.
type Op string

const (
	OpCreatePage   Op = "create_page"
	OpCreateFolder Op = "create_folder"
	OpDeleteTag    Op = "delete_tag"
	OpMovePage     Op = "move_page"
	OpSetCollapsed Op = "set_collapsed"
)

// Intent is a fully resolved mutation.
type Intent struct {
	Op Op

	// Target is the node the user acted on.
	Target models.NodeRef

	// Touched lists every node Apply writes. The reconciliation layer
	// serializes on these and captures their before-image.
	Touched []models.NodeRef

	// Guards lists nodes the plan depends on without writing, such as the
	// tag owning a destination folder. They are locked but not captured.
	Guards []models.NodeRef

	// NoOp intents succeed without touching the forest or the remote.
	NoOp bool

	// Page is the created or moved page as it will look after Apply.
	Page *models.Page

	// Folder is the created folder.
	Folder *models.Folder

	// ImpactCount is the number of pages a delete_tag archives.
	ImpactCount int

	// ExpandFolderID names a collapsed folder that received new content and
	// should be expanded once this intent commits.
	ExpandFolderID *string

	// created is the node a create intent adds. Its ID is fresh, so it
	// needs no lock.
	created *models.NodeRef

	apply func(f *models.Forest)
	send  func(ctx context.Context, r svc.Remote) (*svc.MutationResponse, error)
}

// LockRefs returns the existing nodes this intent reads or writes: the
// target plus everything touched or guarded, minus a newly created node.
func (i *Intent) LockRefs() []models.NodeRef {
	all := make([]models.NodeRef, 0, len(i.Touched)+len(i.Guards)+1)
	all = append(all, i.Target)
	all = append(all, i.Touched...)
	all = append(all, i.Guards...)

	refs := make([]models.NodeRef, 0, len(all))
	for _, r := range all {
		if i.created != nil && r == *i.created {
			continue
		}
		refs = append(refs, r)
	}
	return refs
}

// Apply performs the local change on f. f must be a private copy.
func (i *Intent) Apply(f *models.Forest) {
	if i.NoOp || i.apply == nil {
		return
	}
	i.apply(f)
}

// Send issues the remote call. Transport errors and Success=false responses
// both come back as *domain.RemoteFailureError.
func (i *Intent) Send(ctx context.Context, r svc.Remote) error {
	if i.NoOp || i.send == nil {
		return nil
	}
	resp, err := i.send(ctx, r)
	if err != nil {
		return &domain.RemoteFailureError{Op: string(i.Op), Cause: err}
	}
	if resp == nil {
		return &domain.RemoteFailureError{Op: string(i.Op), Cause: errors.New("empty response")}
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "request was not successful"
		}
		return &domain.RemoteFailureError{Op: string(i.Op), Cause: errors.New(msg)}
	}
	return nil
}

// ImpactMessage is the confirmation text shown before archiving a tag.
func ImpactMessage(count int) string {
	if count == 0 {
		return "Are you sure you want to delete this tag?"
	}
	if count == 1 {
		return "This will archive 1 page."
	}
	return fmt.Sprintf("This will archive %d pages.", count)
}

// FailureMessage is the user-facing notification for a rolled-back op.
func FailureMessage(op Op) string {
	switch op {
	case OpCreatePage:
		return "Failed to create page"
	case OpCreateFolder:
		return "Failed to create folder"
	case OpDeleteTag:
		return "Failed to delete tag"
	case OpMovePage:
		return "Failed to move page"
	case OpSetCollapsed:
		return "Failed to update tree state"
	default:
		return "Something went wrong"
	}
}
