package workspace

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"idealite/internal/config"
	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	wsSvc "idealite/internal/domain/services/workspace"
)

// errorsIsNotFound matches both repository not-found shapes
func errorsIsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrContainerNotFound)
}

func validateCreatePage(req *wsSvc.CreatePageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ID, validation.Required, is.UUID),
		validation.Field(&req.Title, validation.Length(0, config.MaxPageTitleLength)),
		validation.Field(&req.Kind, validation.In(models.PageKindPage, models.PageKindCanvas)),
		validation.Field(&req.TagID, validation.Required),
		validation.Field(&req.Hierarchy, validation.Length(0, config.MaxHierarchyDepth)),
	)
}

func validateCreateFolder(req *wsSvc.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ID, validation.Required, is.UUID),
		validation.Field(&req.Name, validation.Length(0, config.MaxFolderNameLength)),
		validation.Field(&req.TagID, validation.Required),
	)
}

func validateMovePage(req *wsSvc.MovePageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.PageID, validation.Required),
		validation.Field(&req.DestinationTagID, validation.Required),
	)
}

func validateSetCollapsed(req *wsSvc.SetCollapsedRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Kind, validation.Required, validation.In(models.NodeKindTag, models.NodeKindFolder)),
		validation.Field(&req.ID, validation.Required),
	)
}
