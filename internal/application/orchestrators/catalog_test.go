package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainAdmin "otterpoint/internal/domain/admin"
	domainItem "otterpoint/internal/domain/item"
	"otterpoint/internal/domain/pointtype"
)

func TestExecuteSavePointType(t *testing.T) {
	tests := []struct {
		name     string
		pt       pointtype.PointType
		wantErr  error
		wantCall string
	}{
		{"create", pointtype.PointType{Name: " 生日禮 ", Category: "ADD", DefaultValue: 50}, nil, "CreatePointType"},
		{"update", pointtype.PointType{TypeID: "TP00003", Name: "活動", Category: "CONSUME", DefaultValue: 5}, nil, "UpdatePointType"},
		{"seed is protected", pointtype.PointType{TypeID: pointtype.SeedID, Name: "入會禮", Category: "ADD", DefaultValue: 100}, pointtype.ErrProtected, ""},
		{"zero default", pointtype.PointType{Name: "x", Category: "ADD"}, pointtype.ErrInvalidDefault, ""},
		{"bad category", pointtype.PointType{Name: "x", Category: "BONUS", DefaultValue: 1}, pointtype.ErrInvalidCategory, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{}
			err := ExecuteSavePointType(context.Background(), SavePointTypeInput{PointType: tt.pt}, SavePointTypeDeps{Backend: b})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantCall == "" {
				if b.count() != 0 {
					t.Errorf("calls = %v", b.calls)
				}
				return
			}
			if len(b.calls) != 1 || b.calls[0] != tt.wantCall {
				t.Errorf("calls = %v", b.calls)
			}
			if strings.TrimSpace(b.lastType.Name) != b.lastType.Name {
				t.Errorf("name not trimmed: %q", b.lastType.Name)
			}
		})
	}
}

func TestExecuteSaveAdmin(t *testing.T) {
	amy := domainAdmin.Admin{Username: "amy", AdminName: "Amy", Unit: "行銷部", Active: true}
	tests := []struct {
		name      string
		input     SaveAdminInput
		wantErr   error
		wantCalls int
	}{
		{"create by IT", SaveAdminInput{Admin: amy, ActorUnit: domainAdmin.UnitIT}, nil, 1},
		{"other unit forbidden", SaveAdminInput{Admin: amy, ActorUnit: "行銷部"}, ErrAdminsForbidden, 0},
		{"seed protected", SaveAdminInput{Admin: domainAdmin.Admin{AdminID: domainAdmin.SeedID, Username: "root", AdminName: "root", Unit: domainAdmin.UnitIT}, ActorUnit: domainAdmin.UnitIT, CurrentUnit: domainAdmin.UnitIT}, domainAdmin.ErrProtected, 0},
		{"move into IT refused", SaveAdminInput{Admin: domainAdmin.Admin{AdminID: "AD00002", Username: "amy", AdminName: "Amy", Unit: domainAdmin.UnitIT}, CurrentUnit: "行銷部", ActorUnit: domainAdmin.UnitIT}, ErrUnitLocked, 0},
		{"IT admin stays in IT", SaveAdminInput{Admin: domainAdmin.Admin{AdminID: "AD00003", Username: "bob", AdminName: "Bob", Unit: domainAdmin.UnitIT}, CurrentUnit: domainAdmin.UnitIT, ActorUnit: domainAdmin.UnitIT}, nil, 1},
		{"missing unit", SaveAdminInput{Admin: domainAdmin.Admin{Username: "c", AdminName: "C"}, ActorUnit: domainAdmin.UnitIT}, domainAdmin.ErrUnitRequired, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{}
			err := ExecuteSaveAdmin(context.Background(), tt.input, SaveAdminDeps{Backend: b})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if b.count() != tt.wantCalls {
				t.Errorf("calls = %v", b.calls)
			}
		})
	}
}

func TestExecuteSaveItem(t *testing.T) {
	b := &mockBackend{}
	err := ExecuteSaveItem(context.Background(), SaveItemInput{Item: domainItem.Item{Name: "馬克杯", Points: 50}}, ItemDeps{Backend: b})
	if !errors.Is(err, domainItem.ErrImageRequired) || b.count() != 0 {
		t.Fatalf("err = %v calls = %v", err, b.calls)
	}
	err = ExecuteSaveItem(context.Background(), SaveItemInput{Item: domainItem.Item{ItemID: "I1", Name: "馬克杯", Points: 50, ImageURL: "/images/cup.png"}}, ItemDeps{Backend: b})
	if err != nil || b.calls[0] != "UpdateItem" {
		t.Errorf("err = %v calls = %v", err, b.calls)
	}
}

func TestExecuteDeleteItem(t *testing.T) {
	b := &mockBackend{}
	if err := ExecuteDeleteItem(context.Background(), DeleteItemInput{ItemID: "I1"}, ItemDeps{Backend: b}); !IsValidation(err) {
		t.Errorf("unconfirmed delete: %v", err)
	}
	b.err = errors.New("商品已被兌換，無法刪除")
	err := ExecuteDeleteItem(context.Background(), DeleteItemInput{ItemID: "I1", Confirmed: true}, ItemDeps{Backend: b})
	if err == nil || err.Error() != "商品已被兌換，無法刪除" {
		t.Errorf("err = %v", err)
	}
}

func TestExecuteUploadItemImage(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantURL  string
		wantErr  error
	}{
		{"png", "cup.PNG", "/images/cup.PNG", nil},
		{"path stripped", "../../etc/cup.jpg", "/images/cup.jpg", nil},
		{"not an image", "notes.txt", "", ErrImageType},
		{"no file name", "", "", domainItem.ErrImageRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{}
			u, err := ExecuteUploadItemImage(context.Background(), UploadItemImageInput{Filename: tt.filename, File: strings.NewReader("data")}, UploadItemImageDeps{Backend: b})
			if !errors.Is(err, tt.wantErr) || u != tt.wantURL {
				t.Errorf("got %q, %v", u, err)
			}
		})
	}
}
