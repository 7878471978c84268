package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"orderintake/internal/config"
)

// DriveStore implements Store on Google Drive. Folders are resolved
// get-or-create per path segment and cached for the lifetime of the store.
type DriveStore struct {
	service     *drive.Service
	sharedDrive string

	mu      sync.Mutex
	folders map[string]string // slash path -> folder id
}

func NewDriveStore(cfg config.Config) (*DriveStore, error) {
	if err := cfg.Require("DRIVE_CLIENT_ID", cfg.DriveClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("DRIVE_CLIENT_SECRET", cfg.DriveClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("DRIVE_REFRESH_TOKEN", cfg.DriveRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.DriveClientID,
		ClientSecret: cfg.DriveClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.DriveRedirectURI,
		Scopes:       []string{drive.DriveFileScope},
	}

	tokenSource := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.DriveRefreshToken})
	svc, err := drive.NewService(context.Background(), option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &DriveStore{
		service:     svc,
		sharedDrive: cfg.DriveSharedDrive,
		folders:     map[string]string{},
	}, nil
}

func (s *DriveStore) Get(ctx context.Context, path string) ([]byte, error) {
	folderID, name, err := s.resolveParent(ctx, path, false)
	if err != nil {
		return nil, err
	}
	fileID, err := s.findChild(ctx, folderID, name, false)
	if err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, ErrNotFound
	}

	resp, err := s.service.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *DriveStore) Put(ctx context.Context, path string, data []byte) error {
	folderID, name, err := s.resolveParent(ctx, path, true)
	if err != nil {
		return err
	}
	fileID, err := s.findChild(ctx, folderID, name, false)
	if err != nil {
		return err
	}

	if fileID != "" {
		_, err = s.service.Files.Update(fileID, &drive.File{}).
			Media(bytes.NewReader(data)).
			SupportsAllDrives(true).
			Context(ctx).Do()
	} else {
		_, err = s.service.Files.Create(&drive.File{Name: name, Parents: []string{folderID}}).
			Media(bytes.NewReader(data)).
			SupportsAllDrives(true).
			Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

func (s *DriveStore) Exists(ctx context.Context, path string) (bool, error) {
	folderID, name, err := s.resolveParent(ctx, path, false)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	fileID, err := s.findChild(ctx, folderID, name, false)
	if err != nil {
		return false, err
	}
	return fileID != "", nil
}

// resolveParent walks the folder segments of path, optionally creating them,
// and returns the parent folder id plus the final file name.
func (s *DriveStore) resolveParent(ctx context.Context, path string, create bool) (string, string, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[len(segments)-1] == "" {
		return "", "", fmt.Errorf("invalid object path: %q", path)
	}
	name := segments[len(segments)-1]
	dirs := segments[:len(segments)-1]

	parent := "root"
	if s.sharedDrive != "" {
		parent = s.sharedDrive
	}

	walked := ""
	for _, dir := range dirs {
		walked += "/" + dir

		s.mu.Lock()
		cached, ok := s.folders[walked]
		s.mu.Unlock()
		if ok {
			parent = cached
			continue
		}

		id, err := s.findChild(ctx, parent, dir, true)
		if err != nil {
			return "", "", err
		}
		if id == "" {
			if !create {
				return "", "", ErrNotFound
			}
			folder, err := s.service.Files.Create(&drive.File{
				Name:     dir,
				MimeType: "application/vnd.google-apps.folder",
				Parents:  []string{parent},
			}).SupportsAllDrives(true).Fields("id").Context(ctx).Do()
			if err != nil {
				return "", "", fmt.Errorf("create folder %s: %w", walked, err)
			}
			id = folder.Id
		}

		s.mu.Lock()
		s.folders[walked] = id
		s.mu.Unlock()
		parent = id
	}
	return parent, name, nil
}

func (s *DriveStore) findChild(ctx context.Context, parentID, name string, folder bool) (string, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), parentID)
	if folder {
		q += " and mimeType = 'application/vnd.google-apps.folder'"
	}

	call := s.service.Files.List().Q(q).Fields("files(id, name)").
		SupportsAllDrives(true).IncludeItemsFromAllDrives(true).
		Context(ctx)
	if s.sharedDrive != "" {
		call = call.Corpora("drive").DriveId(s.sharedDrive)
	}
	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("list %s in %s: %w", name, parentID, err)
	}
	if len(resp.Files) == 0 {
		return "", nil
	}
	return resp.Files[0].Id, nil
}

func escapeQuery(input string) string {
	return strings.ReplaceAll(strings.ReplaceAll(input, `\`, `\\`), "'", `\'`)
}
