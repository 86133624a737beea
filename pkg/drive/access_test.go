package drive_test

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

func TestCanRead(t *testing.T) {
	file := &metadata.FileRecord{
		ID:      "F1",
		OwnerID: "U1",
		SharedWith: []metadata.FileShare{
			{PrincipalID: "U2", Permission: metadata.PermissionRead},
			{PrincipalID: "U3", Permission: metadata.PermissionWrite},
		},
	}

	cases := []struct {
		name      string
		principal string
		want      bool
	}{
		{"owner", "U1", true},
		{"read share", "U2", true},
		{"write share", "U3", true},
		{"stranger", "U4", false},
		{"empty principal", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := drive.CanRead(file, tc.principal); got != tc.want {
				t.Errorf("CanRead(%q) = %v, want %v", tc.principal, got, tc.want)
			}
		})
	}
}

func TestCanWrite(t *testing.T) {
	folder := &metadata.FolderRecord{
		ID:      "D1",
		OwnerID: "U1",
		SharedWith: []metadata.FolderShare{
			{PrincipalID: "U2", CanEdit: false},
			{PrincipalID: "U3", CanEdit: true},
		},
	}

	cases := []struct {
		name      string
		principal string
		want      bool
	}{
		{"owner", "U1", true},
		{"read share", "U2", false},
		{"edit share", "U3", true},
		{"stranger", "U4", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := drive.CanWrite(folder, tc.principal); got != tc.want {
				t.Errorf("CanWrite(%q) = %v, want %v", tc.principal, got, tc.want)
			}
		})
	}
}

// A failed lookup must never grant access: both a nil interface and a typed
// nil pointer deny everything.
func TestAccessFailsClosedOnNil(t *testing.T) {
	if drive.CanRead(nil, "U1") {
		t.Error("Expected CanRead(nil) to deny")
	}
	if drive.CanWrite(nil, "U1") {
		t.Error("Expected CanWrite(nil) to deny")
	}

	var file *metadata.FileRecord
	if drive.CanRead(file, "U1") {
		t.Error("Expected CanRead on typed nil to deny")
	}
	var folder *metadata.FolderRecord
	if drive.CanWrite(folder, "U1") {
		t.Error("Expected CanWrite on typed nil to deny")
	}
}

// Write implies read for every principal that holds it.
func TestWriteImpliesRead(t *testing.T) {
	file := &metadata.FileRecord{
		ID:      "F1",
		OwnerID: "U1",
		SharedWith: []metadata.FileShare{
			{PrincipalID: "U2", Permission: metadata.PermissionWrite},
		},
	}
	for _, principal := range []string{"U1", "U2"} {
		if !drive.CanWrite(file, principal) {
			t.Fatalf("Expected %s to hold write", principal)
		}
		if !drive.CanRead(file, principal) {
			t.Errorf("Expected %s to hold read because it holds write", principal)
		}
	}
}
