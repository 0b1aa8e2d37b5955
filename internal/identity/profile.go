package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultFirestoreURL is the Firestore REST endpoint
const DefaultFirestoreURL = "https://firestore.googleapis.com"

// Profile is the user document created at signup
type Profile struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

// ProfileWriter creates the users/{uid} document
type ProfileWriter interface {
	WriteProfile(ctx context.Context, idToken string, p Profile) error
}

// FirestoreProfiles writes profiles through the Firestore REST API,
// authenticated as the user with their ID token.
type FirestoreProfiles struct {
	baseURL    string
	projectID  string
	httpClient *http.Client
}

// NewFirestoreProfiles creates a writer for the project's default database
func NewFirestoreProfiles(baseURL, projectID string, httpClient *http.Client) *FirestoreProfiles {
	if baseURL == "" {
		baseURL = DefaultFirestoreURL
	}
	return &FirestoreProfiles{
		baseURL:    strings.TrimRight(baseURL, "/"),
		projectID:  projectID,
		httpClient: httpClient,
	}
}

type firestoreValue map[string]any

func stringValue(s string) firestoreValue {
	return firestoreValue{"stringValue": s}
}

func emptyArray() firestoreValue {
	return firestoreValue{"arrayValue": map[string]any{}}
}

// WriteProfile creates or replaces the document, like setDoc
func (f *FirestoreProfiles) WriteProfile(ctx context.Context, idToken string, p Profile) error {
	if f.projectID == "" {
		return fmt.Errorf("firestore project ID is not configured")
	}
	if p.Role == "" {
		p.Role = "user"
	}

	doc := map[string]any{
		"fields": map[string]firestoreValue{
			"id":         stringValue(p.ID),
			"email":      stringValue(p.Email),
			"name":       stringValue(p.Name),
			"role":       stringValue(p.Role),
			"following":  emptyArray(),
			"followers":  emptyArray(),
			"created_at": stringValue(p.CreatedAt.UTC().Format(time.RFC3339Nano)),
		},
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/projects/%s/databases/(default)/documents/users/%s",
		f.baseURL, url.PathEscape(f.projectID), url.PathEscape(p.ID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+idToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to write profile (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
