package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories. All reads return clones so services cannot
// mutate stored state without going through the repository.
// ---------------------------------------------------------------------------

func cloneCourse(c *domain.Course) *domain.Course {
	clone := *c
	clone.EnrolledStudents = append([]string{}, c.EnrolledStudents...)
	clone.Ratings = append([]string{}, c.Ratings...)
	clone.Content = append([]domain.ContentItem{}, c.Content...)
	clone.Tags = append([]string{}, c.Tags...)
	return &clone
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.EnrolledCourses = append([]string{}, u.EnrolledCourses...)
	clone.CreatedCourses = append([]string{}, u.CreatedCourses...)
	return &clone
}

type stubCourseRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.Course
	seq      int
	addErr   error
	applyErr error
	removed  []string // "course:student" pairs compensated
}

func newStubCourseRepo(courses ...*domain.Course) *stubCourseRepo {
	r := &stubCourseRepo{byID: make(map[string]*domain.Course)}
	for _, c := range courses {
		r.byID[c.ID] = cloneCourse(c)
	}
	return r
}

func (r *stubCourseRepo) Create(_ context.Context, c *domain.Course) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := cloneCourse(c)
	clone.ID = fmt.Sprintf("course-%d", r.seq)
	r.byID[clone.ID] = clone
	return cloneCourse(clone), nil
}

func (r *stubCourseRepo) FindByID(_ context.Context, id string) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return cloneCourse(c), nil
}

func (r *stubCourseRepo) List(_ context.Context, f ports.CourseFilter) ([]*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Course
	for _, c := range r.byID {
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if f.InstructorID != "" && c.InstructorID != f.InstructorID {
			continue
		}
		out = append(out, cloneCourse(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubCourseRepo) Update(_ context.Context, id string, p ports.CoursePatch) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Tags != nil {
		c.Tags = *p.Tags
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	return cloneCourse(c), nil
}

func (r *stubCourseRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCourseNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubCourseRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

// AddStudent mirrors the conditional {$ne: student} + $push update.
func (r *stubCourseRepo) AddStudent(_ context.Context, courseID, studentID string) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return nil, r.addErr
	}
	c, ok := r.byID[courseID]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	if c.HasStudent(studentID) {
		return nil, domain.ErrAlreadyEnrolled
	}
	c.EnrolledStudents = append(c.EnrolledStudents, studentID)
	return cloneCourse(c), nil
}

func (r *stubCourseRepo) RemoveStudent(_ context.Context, courseID, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, courseID+":"+studentID)
	c, ok := r.byID[courseID]
	if !ok {
		return nil
	}
	kept := c.EnrolledStudents[:0]
	for _, id := range c.EnrolledStudents {
		if id != studentID {
			kept = append(kept, id)
		}
	}
	c.EnrolledStudents = kept
	return nil
}

func (r *stubCourseRepo) ApplyRating(_ context.Context, courseID, ratingID string, value int) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return nil, r.applyErr
	}
	c, ok := r.byID[courseID]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	c.RatingSum += value
	c.RatingCount++
	c.Ratings = append(c.Ratings, ratingID)
	c.AverageRating = domain.AverageOf(c.RatingSum, c.RatingCount)
	return cloneCourse(c), nil
}

func (r *stubCourseRepo) get(id string) *domain.Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil
	}
	return cloneCourse(c)
}

type stubUserRepo struct {
	mu          sync.Mutex
	byID        map[string]*domain.User
	seq         int
	enrollErr   error
	createdErr  error
	countErr    error
	pulledFrom  []string
	unlinkedFor []string
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		r.byID[u.ID] = cloneUser(u)
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	clone := cloneUser(u)
	clone.ID = fmt.Sprintf("user-%d", r.seq)
	r.byID[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id, role string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	return cloneUser(u), nil
}

func (r *stubUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	var n int64
	for _, u := range r.byID {
		if role == "" || u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *stubUserRepo) AddEnrolledCourse(_ context.Context, userID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enrollErr != nil {
		return r.enrollErr
	}
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for _, id := range u.EnrolledCourses {
		if id == courseID {
			return nil
		}
	}
	u.EnrolledCourses = append(u.EnrolledCourses, courseID)
	return nil
}

func (r *stubUserRepo) AddCreatedCourse(_ context.Context, userID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createdErr != nil {
		return r.createdErr
	}
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.CreatedCourses = append(u.CreatedCourses, courseID)
	return nil
}

func (r *stubUserRepo) RemoveCreatedCourse(_ context.Context, userID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlinkedFor = append(r.unlinkedFor, userID)
	if u, ok := r.byID[userID]; ok {
		u.CreatedCourses = without(u.CreatedCourses, courseID)
	}
	return nil
}

func (r *stubUserRepo) PullCourseEverywhere(_ context.Context, courseID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, u := range r.byID {
		before := len(u.EnrolledCourses)
		u.EnrolledCourses = without(u.EnrolledCourses, courseID)
		if len(u.EnrolledCourses) != before {
			r.pulledFrom = append(r.pulledFrom, id)
			n++
		}
	}
	return n, nil
}

func (r *stubUserRepo) get(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.byID[id])
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

type stubRatingRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Rating
	order   []string
	seq     int
	deleted []string
}

func newStubRatingRepo() *stubRatingRepo {
	return &stubRatingRepo{byID: make(map[string]*domain.Rating)}
}

// Create mirrors the unique (user_id, course_id) index.
func (r *stubRatingRepo) Create(_ context.Context, rt *domain.Rating) (*domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.UserID == rt.UserID && existing.CourseID == rt.CourseID {
			return nil, domain.ErrDuplicateRating
		}
	}
	r.seq++
	clone := *rt
	clone.ID = fmt.Sprintf("rating-%d", r.seq)
	r.byID[clone.ID] = &clone
	r.order = append(r.order, clone.ID)
	out := clone
	return &out, nil
}

func (r *stubRatingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	delete(r.byID, id)
	return nil
}

func (r *stubRatingRepo) ListByCourse(_ context.Context, courseID string) ([]*domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Rating
	for _, id := range r.order {
		rt, ok := r.byID[id]
		if !ok || rt.CourseID != courseID {
			continue
		}
		clone := *rt
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubRatingRepo) DeleteByCourse(_ context.Context, courseID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rt := range r.byID {
		if rt.CourseID == courseID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *stubRatingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type stubOrderRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.PaymentOrder
	createErr error
}

func newStubOrderRepo(orders ...*domain.PaymentOrder) *stubOrderRepo {
	r := &stubOrderRepo{byID: make(map[string]*domain.PaymentOrder)}
	for _, o := range orders {
		clone := *o
		r.byID[o.OrderID] = &clone
	}
	return r
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	clone := *o
	r.byID[o.OrderID] = &clone
	return nil
}

func (r *stubOrderRepo) FindByOrderID(_ context.Context, id string) (*domain.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPaymentOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *stubOrderRepo) Transition(_ context.Context, id string, from, to domain.PaymentStatus, upd ports.PaymentOrderUpdate) (*domain.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPaymentOrderNotFound
	}
	if o.Status != from || !from.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}
	o.Status = to
	if upd.PayerID != "" {
		o.PayerID = upd.PayerID
	}
	if upd.Provider != nil {
		o.Provider = upd.Provider
	}
	clone := *o
	return &clone, nil
}

func (r *stubOrderRepo) get(id string) *domain.PaymentOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil
	}
	clone := *o
	return &clone
}

// ---------------------------------------------------------------------------
// Outbound stubs
// ---------------------------------------------------------------------------

type stubGateway struct {
	mu          sync.Mutex
	createFn    func(ctx context.Context, req ports.OrderRequest) (*ports.OrderApproval, error)
	captureFn   func(ctx context.Context, orderID, payerID string) (*ports.GatewayCapture, error)
	created     []ports.OrderRequest
	captureHits int
}

func (g *stubGateway) CreateOrder(ctx context.Context, req ports.OrderRequest) (*ports.OrderApproval, error) {
	g.mu.Lock()
	g.created = append(g.created, req)
	g.mu.Unlock()
	if g.createFn != nil {
		return g.createFn(ctx, req)
	}
	return &ports.OrderApproval{OrderID: "PAY-1", ApprovalURL: "https://paypal.test/approve?token=EC-1"}, nil
}

func (g *stubGateway) CaptureOrder(ctx context.Context, orderID, payerID string) (*ports.GatewayCapture, error) {
	g.mu.Lock()
	g.captureHits++
	g.mu.Unlock()
	if g.captureFn != nil {
		return g.captureFn(ctx, orderID, payerID)
	}
	return approvedCapture(orderID), nil
}

func approvedCapture(orderID string) *ports.GatewayCapture {
	raw, _ := json.Marshal(map[string]string{"id": orderID, "state": "approved"})
	return &ports.GatewayCapture{Outcome: domain.OutcomeApproved, State: "approved", Raw: raw}
}

type stubLock struct {
	mu         sync.Mutex
	held       map[string]string
	acquireErr error
	released   int
}

func newStubLock() *stubLock {
	return &stubLock{held: make(map[string]string)}
}

func (l *stubLock) Acquire(_ context.Context, orderID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquireErr != nil {
		return "", false, l.acquireErr
	}
	if _, ok := l.held[orderID]; ok {
		return "", false, nil
	}
	l.held[orderID] = "tok-" + orderID
	return l.held[orderID], true, nil
}

func (l *stubLock) Release(_ context.Context, orderID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[orderID] == token {
		delete(l.held, orderID)
		l.released++
	}
	return nil
}

type stubFileStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	removed []string
	saveErr error
	seq     int
}

func newStubFileStore() *stubFileStore {
	return &stubFileStore{saved: make(map[string][]byte)}
}

func (f *stubFileStore) Save(_ context.Context, name string, body io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.seq++
	u := fmt.Sprintf("/uploads/%d-%s", f.seq, name)
	f.saved[u] = data
	return u, nil
}

func (f *stubFileStore) Remove(_ context.Context, publicURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, publicURL)
	delete(f.saved, publicURL)
	return nil
}
