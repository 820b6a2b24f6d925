package orchestrators

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	domainAdmin "otterpoint/internal/domain/admin"
	domainAudit "otterpoint/internal/domain/audit"
	domainItem "otterpoint/internal/domain/item"
	"otterpoint/internal/domain/pointtype"
)

// PointTypeWriter creates and updates point types.
type PointTypeWriter interface {
	CreatePointType(ctx context.Context, p pointtype.PointType) error
	UpdatePointType(ctx context.Context, p pointtype.PointType) error
}

// SavePointTypeInput carries input for the point type form. An empty TypeID creates.
type SavePointTypeInput struct {
	PointType pointtype.PointType
	Actor     Actor
}

// SavePointTypeDeps holds dependencies for SavePointType.
type SavePointTypeDeps struct {
	Backend PointTypeWriter
	Recording
}

// ExecuteSavePointType creates or updates a point type.
// PRE: DefaultValue was parsed from the form
// POST: The backend stored the type
// INVARIANT: The seed type is never sent for update
func ExecuteSavePointType(ctx context.Context, input SavePointTypeInput, deps SavePointTypeDeps) error {
	p := input.PointType
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Protected() {
		return invalid(pointtype.ErrProtected)
	}
	if err := p.Validate(); err != nil {
		return invalid(err)
	}
	if p.TypeID == "" {
		err := deps.Backend.CreatePointType(ctx, p)
		deps.record(ctx, input.Actor, domainAudit.ActionCreate, domainAudit.ResourcePointType, p.Name, err)
		return err
	}
	err := deps.Backend.UpdatePointType(ctx, p)
	deps.record(ctx, input.Actor, domainAudit.ActionUpdate, domainAudit.ResourcePointType, p.TypeID, err)
	return err
}

// AdminWriter creates and updates admin accounts.
type AdminWriter interface {
	CreateAdmin(ctx context.Context, a domainAdmin.Admin) error
	UpdateAdmin(ctx context.Context, a domainAdmin.Admin) error
}

// SaveAdminInput carries input for the admin form. An empty AdminID creates.
type SaveAdminInput struct {
	Admin       domainAdmin.Admin
	CurrentUnit string // unit of the record before the edit
	ActorUnit   string
	Actor       Actor
}

// SaveAdminDeps holds dependencies for SaveAdmin.
type SaveAdminDeps struct {
	Backend AdminWriter
	Recording
}

// Admin management errors
var (
	ErrAdminsForbidden = errors.New("僅資訊部可管理管理員帳號")
	ErrUnitLocked      = errors.New("無法將管理員調入資訊部")
)

// ExecuteSaveAdmin creates or updates an admin account.
// PRE: ActorUnit is the unit of the signed-in admin
// POST: The backend stored the account
// INVARIANT: Only 資訊部 admins reach the backend; the seed admin is never updated
func ExecuteSaveAdmin(ctx context.Context, input SaveAdminInput, deps SaveAdminDeps) error {
	if !domainAdmin.CanManageAdmins(input.ActorUnit) {
		return invalid(ErrAdminsForbidden)
	}
	a := input.Admin
	a.Username = strings.TrimSpace(a.Username)
	a.AdminName = strings.TrimSpace(a.AdminName)
	if a.Protected() {
		return invalid(domainAdmin.ErrProtected)
	}
	if err := a.Validate(); err != nil {
		return invalid(err)
	}
	if a.AdminID == "" {
		err := deps.Backend.CreateAdmin(ctx, a)
		deps.record(ctx, input.Actor, domainAudit.ActionCreate, domainAudit.ResourceAdmin, a.Username, err)
		return err
	}
	if a.Unit == domainAdmin.UnitIT && input.CurrentUnit != domainAdmin.UnitIT {
		return invalid(ErrUnitLocked)
	}
	err := deps.Backend.UpdateAdmin(ctx, a)
	deps.record(ctx, input.Actor, domainAudit.ActionUpdate, domainAudit.ResourceAdmin, a.AdminID, err)
	return err
}

// ItemWriter creates, updates and deletes catalog items.
type ItemWriter interface {
	CreateItem(ctx context.Context, i domainItem.Item) error
	UpdateItem(ctx context.Context, i domainItem.Item) error
	DeleteItem(ctx context.Context, id string) error
}

// SaveItemInput carries input for the item form. An empty ItemID creates.
type SaveItemInput struct {
	Item  domainItem.Item
	Actor Actor
}

// ItemDeps holds dependencies for the item orchestrators.
type ItemDeps struct {
	Backend ItemWriter
	Recording
}

// ExecuteSaveItem creates or updates an item.
// PRE: ImageURL was returned by a previous upload
// POST: The backend stored the item
func ExecuteSaveItem(ctx context.Context, input SaveItemInput, deps ItemDeps) error {
	it := input.Item
	it.Name = strings.TrimSpace(it.Name)
	if err := it.Validate(); err != nil {
		return invalid(err)
	}
	if it.ItemID == "" {
		err := deps.Backend.CreateItem(ctx, it)
		deps.record(ctx, input.Actor, domainAudit.ActionCreate, domainAudit.ResourceItem, it.Name, err)
		return err
	}
	err := deps.Backend.UpdateItem(ctx, it)
	deps.record(ctx, input.Actor, domainAudit.ActionUpdate, domainAudit.ResourceItem, it.ItemID, err)
	return err
}

// DeleteItemInput carries input for the item delete orchestrator.
type DeleteItemInput struct {
	ItemID    string
	Confirmed bool
	Actor     Actor
}

// ExecuteDeleteItem deletes an item after confirmation.
// PRE: the admin confirmed the action
// POST: The backend deleted the item; nothing is sent without confirmation
func ExecuteDeleteItem(ctx context.Context, input DeleteItemInput, deps ItemDeps) error {
	if err := checkConfirmed(input.ItemID, input.Confirmed); err != nil {
		return err
	}
	err := deps.Backend.DeleteItem(ctx, input.ItemID)
	deps.record(ctx, input.Actor, domainAudit.ActionDelete, domainAudit.ResourceItem, input.ItemID, err)
	return err
}

// ImageUploader stores item images.
type ImageUploader interface {
	UploadItemImage(ctx context.Context, filename string, r io.Reader) (string, error)
}

// UploadItemImageInput carries the uploaded file.
type UploadItemImageInput struct {
	Filename string
	File     io.Reader
	Actor    Actor
}

// UploadItemImageDeps holds dependencies for UploadItemImage.
type UploadItemImageDeps struct {
	Backend ImageUploader
	Recording
}

// ErrImageType is returned for files that are not PNG, JPEG, GIF or WebP.
var ErrImageType = errors.New("僅支援 PNG、JPEG、GIF 或 WebP 圖片")

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// ExecuteUploadItemImage forwards an image to the backend and returns its URL.
// PRE: File is the multipart part named "file"
// POST: Returns the URL the backend serves the image at
func ExecuteUploadItemImage(ctx context.Context, input UploadItemImageInput, deps UploadItemImageDeps) (string, error) {
	if input.File == nil || strings.TrimSpace(input.Filename) == "" {
		return "", invalid(domainItem.ErrImageRequired)
	}
	if !imageExtensions[strings.ToLower(filepath.Ext(input.Filename))] {
		return "", invalid(ErrImageType)
	}
	u, err := deps.Backend.UploadItemImage(ctx, filepath.Base(input.Filename), input.File)
	deps.record(ctx, input.Actor, domainAudit.ActionUpload, domainAudit.ResourceItem, filepath.Base(input.Filename), err)
	return u, err
}
