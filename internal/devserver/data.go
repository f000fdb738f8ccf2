// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/applianceai-tui/internal/model"
)

var (
	errMissingFields      = errors.New("All fields are required")
	errUsernameTaken      = errors.New("Username already exists")
	errEmailTaken         = errors.New("Email already exists")
	errInvalidCredentials = errors.New("Invalid Credentials")
	errInvalidRefresh     = errors.New("Token is invalid or expired")
	errSessionNotFound    = errors.New("Not found.")
)

type account struct {
	ID       int
	Username string
	Email    string
	pwHash   [32]byte
}

type accessGrant struct {
	userID  int
	expires time.Time
}

// session groups the records of one user for one appliance and brand.
type session struct {
	ID           int
	UserID       int
	Appliance    string
	Brand        string
	Title        string
	CreatedAt    time.Time
	LastActivity time.Time
	records      []record
}

// record is one question and its answer.
type record struct {
	ID        int
	Message   string
	Response  string
	Sources   []source
	Timestamp time.Time
}

// source is one retrieval hit backing an answer.
type source struct {
	FileName string  `json:"file_name"`
	ChunkID  int     `json:"chunk_id"`
	Distance float64 `json:"distance"`
	Text     string  `json:"text"`
}

// memory holds all server state behind one mutex.
type memory struct {
	mu        sync.Mutex
	accessTTL time.Duration

	nextUser    int
	nextSession int
	nextRecord  int

	users    map[int]*account
	access   map[string]accessGrant
	refresh  map[string]int
	sessions map[int]*session
}

func newMemory(accessTTL time.Duration) *memory {
	return &memory{
		accessTTL: accessTTL,
		users:     make(map[int]*account),
		access:    make(map[string]accessGrant),
		refresh:   make(map[string]int),
		sessions:  make(map[int]*session),
	}
}

func hashPassword(pw string) [32]byte {
	return sha256.Sum256([]byte("applianceai-devserver:" + pw))
}

func (m *memory) createUser(username, email, password string) (*account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, errMissingFields
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return nil, errUsernameTaken
		}
		if strings.EqualFold(u.Email, email) {
			return nil, errEmailTaken
		}
	}
	m.nextUser++
	u := &account{ID: m.nextUser, Username: username, Email: email, pwHash: hashPassword(password)}
	m.users[u.ID] = u
	return u, nil
}

// login checks credentials and issues an access/refresh pair.
func (m *memory) login(email, password string, now time.Time) (*account, string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found *account
	for _, u := range m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			found = u
			break
		}
	}
	if found == nil {
		return nil, "", "", errInvalidCredentials
	}
	h := hashPassword(password)
	if subtle.ConstantTimeCompare(h[:], found.pwHash[:]) != 1 {
		return nil, "", "", errInvalidCredentials
	}

	access := m.issueAccessLocked(found.ID, now)
	refresh := uuid.NewString()
	m.refresh[refresh] = found.ID
	return found, access, refresh, nil
}

func (m *memory) issueAccessLocked(userID int, now time.Time) string {
	token := uuid.NewString()
	m.access[token] = accessGrant{userID: userID, expires: now.Add(m.accessTTL)}
	return token
}

// refreshAccess rotates the refresh token and issues a new access token.
func (m *memory) refreshAccess(refresh string, now time.Time) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.refresh[refresh]
	if !ok {
		return "", "", errInvalidRefresh
	}
	delete(m.refresh, refresh)
	rotated := uuid.NewString()
	m.refresh[rotated] = userID
	return m.issueAccessLocked(userID, now), rotated, nil
}

func (m *memory) userForAccess(token string, now time.Time) (*account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	grant, ok := m.access[token]
	if !ok {
		return nil, false
	}
	if !now.Before(grant.expires) {
		delete(m.access, token)
		return nil, false
	}
	u, ok := m.users[grant.userID]
	return u, ok
}

// expireAccess invalidates every access token; refresh tokens survive.
func (m *memory) expireAccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = make(map[string]accessGrant)
}

// sessionTitle capitalises the raw ids the way the backend does, giving
// "Lg Refrigerator Support".
func sessionTitle(appliance, brand string) string {
	return model.SessionName(appliance, brand)
}

// appendRecord finds or creates the user's session for the selection and
// stores the exchange in it.
func (m *memory) appendRecord(userID int, appliance, brand string, rec record) (record, *session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sess *session
	for _, s := range m.sessions {
		if s.UserID == userID && s.Appliance == appliance && s.Brand == brand {
			sess = s
			break
		}
	}
	if sess == nil {
		m.nextSession++
		sess = &session{
			ID:        m.nextSession,
			UserID:    userID,
			Appliance: appliance,
			Brand:     brand,
			Title:     sessionTitle(appliance, brand),
			CreatedAt: rec.Timestamp,
		}
		m.sessions[sess.ID] = sess
	}

	m.nextRecord++
	rec.ID = m.nextRecord
	sess.records = append(sess.records, rec)
	sess.LastActivity = rec.Timestamp
	return rec, sess
}

// recentSessions returns copies of the user's sessions, most recent first.
func (m *memory) recentSessions(userID, limit int) []session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []session
	for _, s := range m.sessions {
		if s.UserID == userID {
			c := *s
			c.records = append([]record(nil), s.records...)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].ID > out[j].ID
		}
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memory) sessionRecords(userID, sessionID int) ([]record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, errSessionNotFound
	}
	return append([]record(nil), s.records...), nil
}

func (m *memory) clearHistory(userID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
