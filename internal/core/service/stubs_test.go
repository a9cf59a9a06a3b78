package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Personnel
// ---------------------------------------------------------------------------

type stubPersonnelRepo struct {
	byID       map[int64]*domain.Personnel
	consumeErr error
}

func newStubPersonnelRepo(people ...*domain.Personnel) *stubPersonnelRepo {
	r := &stubPersonnelRepo{byID: make(map[int64]*domain.Personnel)}
	for _, p := range people {
		r.byID[p.ID] = clonePersonnel(p)
	}
	return r
}

func clonePersonnel(p *domain.Personnel) *domain.Personnel {
	if p == nil {
		return nil
	}
	c := *p
	if p.OTP != nil {
		otp := *p.OTP
		c.OTP = &otp
	}
	return &c
}

func (r *stubPersonnelRepo) Create(_ context.Context, p *domain.Personnel) error {
	for _, existing := range r.byID {
		if existing.ServiceNumber == p.ServiceNumber || (p.Email != "" && existing.Email == p.Email) {
			return domain.ErrConflict
		}
	}
	r.byID[p.ID] = clonePersonnel(p)
	return nil
}

func (r *stubPersonnelRepo) FindByID(_ context.Context, id int64) (*domain.Personnel, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPersonnelNotFound
	}
	return clonePersonnel(p), nil
}

func (r *stubPersonnelRepo) FindByIDs(_ context.Context, ids []int64) ([]*domain.Personnel, error) {
	var out []*domain.Personnel
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			out = append(out, clonePersonnel(p))
		}
	}
	return out, nil
}

func (r *stubPersonnelRepo) find(match func(*domain.Personnel) bool) (*domain.Personnel, error) {
	for _, p := range r.byID {
		if match(p) {
			return clonePersonnel(p), nil
		}
	}
	return nil, domain.ErrPersonnelNotFound
}

func (r *stubPersonnelRepo) FindByServiceNumber(_ context.Context, sn string) (*domain.Personnel, error) {
	return r.find(func(p *domain.Personnel) bool { return p.ServiceNumber == sn })
}

func (r *stubPersonnelRepo) FindByEmail(_ context.Context, email string) (*domain.Personnel, error) {
	return r.find(func(p *domain.Personnel) bool { return p.Email != "" && p.Email == email })
}

func (r *stubPersonnelRepo) FindByPhoneAndServiceNumber(_ context.Context, phone, sn string) (*domain.Personnel, error) {
	return r.find(func(p *domain.Personnel) bool { return p.PhoneNumber == phone && p.ServiceNumber == sn })
}

func (r *stubPersonnelRepo) SetPassword(_ context.Context, id int64, hash string) error {
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrPersonnelNotFound
	}
	p.PasswordHash = hash
	return nil
}

func (r *stubPersonnelRepo) SetOTP(_ context.Context, id int64, otp domain.PendingOTP) error {
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrPersonnelNotFound
	}
	p.OTP = &otp
	return nil
}

func (r *stubPersonnelRepo) ClearOTP(_ context.Context, id int64) error {
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrPersonnelNotFound
	}
	p.OTP = nil
	return nil
}

func (r *stubPersonnelRepo) ConsumeOTP(_ context.Context, id int64, code string) (bool, error) {
	if r.consumeErr != nil {
		return false, r.consumeErr
	}
	p, ok := r.byID[id]
	if !ok || p.OTP == nil || p.OTP.Code != code {
		return false, nil
	}
	p.OTP = nil
	return true, nil
}

func (r *stubPersonnelRepo) UpdateProfile(_ context.Context, id int64, upd ports.ProfileUpdate) (*domain.Personnel, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPersonnelNotFound
	}
	if upd.PhoneNumber != nil {
		p.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Rank != nil {
		p.Rank = *upd.Rank
	}
	if upd.PreferredContact != nil {
		p.PreferredContact = *upd.PreferredContact
	}
	return clonePersonnel(p), nil
}

// ---------------------------------------------------------------------------
// Verification progress, sessions, notifications
// ---------------------------------------------------------------------------

type stubProgress struct {
	states map[string]domain.VerificationState
	tokens map[string]string
}

func newStubProgress() *stubProgress {
	return &stubProgress{states: make(map[string]domain.VerificationState), tokens: make(map[string]string)}
}

func (s *stubProgress) Get(_ context.Context, sn string) (domain.VerificationState, error) {
	st, ok := s.states[sn]
	if !ok {
		return domain.VerificationStart, nil
	}
	return st, nil
}

func (s *stubProgress) Advance(_ context.Context, sn string, state domain.VerificationState) (domain.VerificationState, error) {
	cur, ok := s.states[sn]
	if ok && cur.Reached(state) {
		return cur, nil
	}
	s.states[sn] = state
	return state, nil
}

func (s *stubProgress) Reset(_ context.Context, sn string, state domain.VerificationState) error {
	s.states[sn] = state
	return nil
}

func (s *stubProgress) SaveToken(_ context.Context, sn, digest string) error {
	s.tokens[sn] = digest
	return nil
}

func (s *stubProgress) Token(_ context.Context, sn string) (string, error) {
	return s.tokens[sn], nil
}

type stubSessions struct {
	live map[int64]string
}

func newStubSessions() *stubSessions {
	return &stubSessions{live: make(map[int64]string)}
}

func (s *stubSessions) Replace(_ context.Context, sess *domain.Session) error {
	s.live[sess.PersonnelID] = sess.ID
	return nil
}

func (s *stubSessions) Current(_ context.Context, pid int64) (string, error) {
	return s.live[pid], nil
}

func (s *stubSessions) Revoke(_ context.Context, pid int64, sid string) error {
	if s.live[pid] == sid {
		delete(s.live, pid)
	}
	return nil
}

type stubDispatcher struct {
	sent []ports.Notification
}

func (d *stubDispatcher) Dispatch(n ports.Notification) {
	d.sent = append(d.sent, n)
}

func (d *stubDispatcher) last() ports.Notification {
	if len(d.sent) == 0 {
		return ports.Notification{}
	}
	return d.sent[len(d.sent)-1]
}

// stubHasher stands in for bcrypt; digests are reversible on purpose.
type stubHasher struct{}

func (stubHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (stubHasher) Verify(plain, digest string) bool { return digest == "hashed:"+plain }

type stubIDs struct {
	next     int64
	sessions int
}

func (g *stubIDs) NextID() int64 {
	g.next++
	return 1000 + g.next
}

func (g *stubIDs) NewSessionID() string {
	g.sessions++
	return fmt.Sprintf("session-%d", g.sessions)
}

// ---------------------------------------------------------------------------
// Messages, reactions, threads, blobs
// ---------------------------------------------------------------------------

type stubMessageRepo struct {
	byID map[int64]*domain.Message
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{byID: make(map[int64]*domain.Message)}
}

func cloneMessage(m *domain.Message) *domain.Message {
	c := *m
	c.StarredBy = slices.Clone(m.StarredBy)
	return &c
}

func (r *stubMessageRepo) Create(_ context.Context, m *domain.Message) error {
	r.byID[m.ID] = cloneMessage(m)
	return nil
}

func (r *stubMessageRepo) FindByID(_ context.Context, id int64) (*domain.Message, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	return cloneMessage(m), nil
}

func (r *stubMessageRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubMessageRepo) MarkRead(_ context.Context, id int64) error {
	m, ok := r.byID[id]
	if !ok {
		return domain.ErrMessageNotFound
	}
	m.IsRead = true
	return nil
}

func (r *stubMessageRepo) list(match func(*domain.Message) bool) []*domain.Message {
	var out []*domain.Message
	for _, m := range r.byID {
		if match(m) {
			out = append(out, cloneMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (r *stubMessageRepo) ListForRecipient(_ context.Context, uid int64) ([]*domain.Message, error) {
	return r.list(func(m *domain.Message) bool { return m.ThreadID == 0 && m.RecipientID == uid }), nil
}

func (r *stubMessageRepo) ListByThread(_ context.Context, tid int64) ([]*domain.Message, error) {
	return r.list(func(m *domain.Message) bool { return m.ThreadID == tid }), nil
}

func (r *stubMessageRepo) ListShared(_ context.Context, uid, contact int64, types []domain.MediaType) ([]*domain.Message, error) {
	return r.list(func(m *domain.Message) bool {
		between := (m.SenderID == uid && m.RecipientID == contact) || (m.SenderID == contact && m.RecipientID == uid)
		return between && slices.Contains(types, m.MediaType)
	}), nil
}

func (r *stubMessageRepo) AddStar(_ context.Context, id, uid int64) error {
	m, ok := r.byID[id]
	if !ok {
		return domain.ErrMessageNotFound
	}
	if !slices.Contains(m.StarredBy, uid) {
		m.StarredBy = append(m.StarredBy, uid)
	}
	return nil
}

func (r *stubMessageRepo) RemoveStar(_ context.Context, id, uid int64) error {
	m, ok := r.byID[id]
	if !ok {
		return domain.ErrMessageNotFound
	}
	m.StarredBy = slices.DeleteFunc(m.StarredBy, func(v int64) bool { return v == uid })
	return nil
}

type reactionKey struct{ message, user int64 }

type stubReactionRepo struct {
	byKey map[reactionKey]*domain.Reaction
}

func newStubReactionRepo() *stubReactionRepo {
	return &stubReactionRepo{byKey: make(map[reactionKey]*domain.Reaction)}
}

func (r *stubReactionRepo) Upsert(_ context.Context, rc *domain.Reaction) (*domain.Reaction, error) {
	k := reactionKey{rc.MessageID, rc.UserID}
	if existing, ok := r.byKey[k]; ok {
		existing.ReactionType = rc.ReactionType
		existing.Timestamp = rc.Timestamp
		c := *existing
		return &c, nil
	}
	c := *rc
	r.byKey[k] = &c
	out := c
	return &out, nil
}

func (r *stubReactionRepo) ListByMessage(_ context.Context, mid int64) ([]*domain.Reaction, error) {
	var out []*domain.Reaction
	for k, rc := range r.byKey {
		if k.message == mid {
			c := *rc
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubReactionRepo) DeleteByMessage(_ context.Context, mid int64) error {
	for k := range r.byKey {
		if k.message == mid {
			delete(r.byKey, k)
		}
	}
	return nil
}

type stubThreadRepo struct {
	byID map[int64]*domain.Thread
}

func newStubThreadRepo() *stubThreadRepo {
	return &stubThreadRepo{byID: make(map[int64]*domain.Thread)}
}

func cloneThread(t *domain.Thread) *domain.Thread {
	c := *t
	c.Participants = slices.Clone(t.Participants)
	return &c
}

func (r *stubThreadRepo) Create(_ context.Context, t *domain.Thread) error {
	r.byID[t.ID] = cloneThread(t)
	return nil
}

func (r *stubThreadRepo) FindByID(_ context.Context, id int64) (*domain.Thread, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return cloneThread(t), nil
}

func (r *stubThreadRepo) ListForParticipant(_ context.Context, uid int64) ([]*domain.Thread, error) {
	var out []*domain.Thread
	for _, t := range r.byID {
		if t.HasParticipant(uid) {
			out = append(out, cloneThread(t))
		}
	}
	return out, nil
}

func (r *stubThreadRepo) AddParticipant(_ context.Context, tid, actor, target int64) (bool, error) {
	t, ok := r.byID[tid]
	if !ok || !t.HasParticipant(actor) {
		return false, nil
	}
	if !t.HasParticipant(target) {
		t.Participants = append(t.Participants, target)
	}
	return true, nil
}

func (r *stubThreadRepo) RemoveParticipant(_ context.Context, tid, actor, target int64) (bool, error) {
	t, ok := r.byID[tid]
	if !ok || !t.HasParticipant(actor) || len(t.Participants) < 2 {
		return false, nil
	}
	t.Participants = slices.DeleteFunc(t.Participants, func(v int64) bool { return v == target })
	return true, nil
}

type stubBlobStore struct {
	saved map[string][]byte
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{saved: make(map[string][]byte)}
}

func (b *stubBlobStore) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	id := fmt.Sprintf("blob%d", len(b.saved)+1)
	b.saved[id] = data
	return "/v1/media/" + id, nil
}

func (b *stubBlobStore) Open(_ context.Context, id string) (io.ReadCloser, *ports.BlobInfo, error) {
	data, ok := b.saved[strings.TrimPrefix(id, "/v1/media/")]
	if !ok {
		return nil, nil, domain.ErrMediaNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), &ports.BlobInfo{ID: id, Size: int64(len(data))}, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// clock is a settable time source for services that take a now func.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func seedPersonnel(id int64, sn string) *domain.Personnel {
	return &domain.Personnel{
		ID:               id,
		OfficialName:     "JA Okafor",
		ServiceNumber:    sn,
		Email:            fmt.Sprintf("p%d@example.org", id),
		PhoneNumber:      "08012345678",
		Role:             domain.RolePersonnel,
		PreferredContact: domain.ChannelEmail,
		CreatedAt:        fixedNow,
		UpdatedAt:        fixedNow,
	}
}
