package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/fullcourse/fullcourse-api/internal/mailer"
	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL schema. Counters are
// recomputed from rows after every write, as the repositories do.
type memDB struct {
	mu sync.Mutex

	nextID      int64
	users       map[int64]*model.User
	products    map[int64]model.Product
	courses     map[int64]*model.Course
	items       map[int64][]model.CourseItem
	reactions   map[model.Reaction]map[[2]int64]bool
	ratings     map[[2]int64]int
	comments    map[int64]*model.Comment
	tokens      map[string]*model.OneTimeToken
	submissions map[int64]*model.Submission
	clock       time.Time
}

func newMemDB() *memDB {
	return &memDB{
		users:    make(map[int64]*model.User),
		products: make(map[int64]model.Product),
		courses:  make(map[int64]*model.Course),
		items:    make(map[int64][]model.CourseItem),
		reactions: map[model.Reaction]map[[2]int64]bool{
			model.ReactionWantsToEat: {},
			model.ReactionTried:      {},
		},
		ratings:     make(map[[2]int64]int),
		comments:    make(map[int64]*model.Comment),
		tokens:      make(map[string]*model.OneTimeToken),
		submissions: make(map[int64]*model.Submission),
		clock:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memDB) addProduct(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.products[id] = model.Product{ID: id, Name: name}
	return id
}

func (m *memDB) recompute(courseID int64) {
	c, ok := m.courses[courseID]
	if !ok {
		return
	}
	c.WantsToEatCount, c.TriedCount = 0, 0
	for key := range m.reactions[model.ReactionWantsToEat] {
		if key[0] == courseID {
			c.WantsToEatCount++
		}
	}
	for key := range m.reactions[model.ReactionTried] {
		if key[0] == courseID {
			c.TriedCount++
		}
	}

	sum, n := 0, 0
	for key, score := range m.ratings {
		if key[0] == courseID {
			sum += score
			n++
		}
	}
	c.RatingsCount = n
	c.AverageRating = nil
	if n > 0 {
		avg := math.Round(float64(sum)/float64(n)*100) / 100
		c.AverageRating = &avg
	}

	c.CommentCount = 0
	for _, cm := range m.comments {
		if cm.CourseID == courseID {
			c.CommentCount++
		}
	}
}

func (m *memDB) recomputeCourseCount(userID int64) {
	u, ok := m.users[userID]
	if !ok {
		return
	}
	u.CourseCount = 0
	for _, c := range m.courses {
		if c.UserID == userID {
			u.CourseCount++
		}
	}
}

func (m *memDB) summary(c *model.Course) model.CourseSummary {
	var author model.UserSummary
	if u, ok := m.users[c.UserID]; ok {
		author = model.UserSummary{ID: u.ID, Name: u.Name, Image: u.Image}
	}
	return model.CourseSummary{
		ID:                c.ID,
		Title:             c.Title,
		Description:       c.Description,
		AverageRating:     c.AverageRating,
		TotalRatingsCount: c.RatingsCount,
		WantsToEatCount:   c.WantsToEatCount,
		TriedCount:        c.TriedCount,
		CommentCount:      c.CommentCount,
		ItemCount:         len(m.items[c.ID]),
		User:              author,
		CreatedAt:         c.CreatedAt,
	}
}

// fakeUsers implements UserStore.
type fakeUsers struct{ *memDB }

func (f fakeUsers) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if user.Handle != "" && u.Handle == user.Handle {
			return repository.ErrDuplicateHandle
		}
	}
	user.ID = f.id()
	user.CreatedAt = f.tick()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) SessionVersion(_ context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	return u.SessionVersion, nil
}

func (f fakeUsers) CompleteSetup(_ context.Context, id int64, name, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Name, u.PasswordHash = name, hash
	u.SessionVersion++
	return nil
}

func (f fakeUsers) SetPasswordByEmail(_ context.Context, email, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			u.PasswordHash = hash
			u.SessionVersion++
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (f fakeUsers) UpdateProfile(_ context.Context, id int64, name, bio, image string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Name, u.Bio, u.Image = name, bio, image
	}
	return nil
}

func (f fakeUsers) SetAdmin(_ context.Context, id int64, isAdmin bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsAdmin = isAdmin
	u.SessionVersion++
	return nil
}

func (f fakeUsers) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeUsers) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

func (f fakeUsers) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)

	touched := map[int64]bool{}
	for cid, c := range f.courses {
		if c.UserID == id {
			delete(f.courses, cid)
			delete(f.items, cid)
		}
	}
	for _, set := range f.reactions {
		for key := range set {
			if key[1] == id {
				touched[key[0]] = true
				delete(set, key)
			}
		}
	}
	for key := range f.ratings {
		if key[1] == id {
			touched[key[0]] = true
			delete(f.ratings, key)
		}
	}
	for cid, cm := range f.comments {
		if cm.UserID == id {
			touched[cm.CourseID] = true
			delete(f.comments, cid)
		}
	}
	for cid := range touched {
		f.recompute(cid)
	}
	return nil
}

// fakeTokens implements TokenStore.
type fakeTokens struct{ *memDB }

func tokenKey(p model.TokenPurpose, email string) string { return string(p) + "|" + email }

func (f fakeTokens) Upsert(_ context.Context, t *model.OneTimeToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tokens[tokenKey(t.Purpose, t.Email)] = &cp
	return nil
}

func (f fakeTokens) Get(_ context.Context, p model.TokenPurpose, email string) (*model.OneTimeToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[tokenKey(p, email)]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeTokens) GetByValue(_ context.Context, p model.TokenPurpose, value string) (*model.OneTimeToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.Purpose == p && t.Value == value {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrTokenNotFound
}

func (f fakeTokens) Delete(_ context.Context, p model.TokenPurpose, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, tokenKey(p, email))
	return nil
}

func (f fakeTokens) Claim(_ context.Context, p model.TokenPurpose, email, value string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := tokenKey(p, email)
	t, ok := f.tokens[key]
	if !ok || t.Value != value || t.ExpiresAt.Before(now) {
		return repository.ErrTokenNotFound
	}
	delete(f.tokens, key)
	return nil
}

func (f fakeTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, t := range f.tokens {
		if t.ExpiresAt.Before(now) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

// fakeCourses implements CourseStore.
type fakeCourses struct{ *memDB }

func (f fakeCourses) setItems(courseID int64, items []model.CourseItemRequest) error {
	out := make([]model.CourseItem, 0, len(items))
	for i, it := range items {
		p, ok := f.products[it.ProductID]
		if !ok {
			return repository.ErrProductNotFound
		}
		out = append(out, model.CourseItem{
			ID: f.id(), CourseID: courseID, ProductID: it.ProductID, Role: it.Role, Order: i + 1, Product: p,
		})
	}
	f.items[courseID] = out
	return nil
}

func (f fakeCourses) Create(_ context.Context, course *model.Course, items []model.CourseItemRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	if err := f.setItems(id, items); err != nil {
		return err
	}
	course.ID = id
	course.CreatedAt = f.tick()
	cp := *course
	f.courses[id] = &cp
	f.recomputeCourseCount(course.UserID)
	return nil
}

func (f fakeCourses) Update(_ context.Context, course *model.Course, items []model.CourseItemRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[course.ID]
	if !ok {
		return repository.ErrCourseNotFound
	}
	prev := f.items[course.ID]
	if err := f.setItems(course.ID, items); err != nil {
		f.items[course.ID] = prev
		return err
	}
	c.Title, c.Description = course.Title, course.Description
	return nil
}

func (f fakeCourses) Delete(_ context.Context, courseID, ownerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[courseID]; !ok {
		return repository.ErrCourseNotFound
	}
	delete(f.courses, courseID)
	delete(f.items, courseID)
	for _, set := range f.reactions {
		for key := range set {
			if key[0] == courseID {
				delete(set, key)
			}
		}
	}
	for key := range f.ratings {
		if key[0] == courseID {
			delete(f.ratings, key)
		}
	}
	for id, cm := range f.comments {
		if cm.CourseID == courseID {
			delete(f.comments, id)
		}
	}
	f.recomputeCourseCount(ownerID)
	return nil
}

func (f fakeCourses) GetByID(_ context.Context, id int64) (*model.CourseSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, repository.ErrCourseNotFound
	}
	s := f.summary(c)
	return &s, nil
}

func (f fakeCourses) Items(_ context.Context, courseID int64) ([]model.CourseItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CourseItem{}, f.items[courseID]...), nil
}

func (f fakeCourses) sorted(filter func(*model.Course) bool) []model.CourseSummary {
	var out []model.CourseSummary
	for _, c := range f.courses {
		if filter(c) {
			out = append(out, f.summary(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f fakeCourses) List(_ context.Context, limit, offset int) ([]model.CourseSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(func(*model.Course) bool { return true })
	if offset >= len(all) {
		return []model.CourseSummary{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (f fakeCourses) ListByUser(_ context.Context, userID int64) ([]model.CourseSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(c *model.Course) bool { return c.UserID == userID }), nil
}

func (f fakeCourses) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.courses), nil
}

// fakeEngagement implements EngagementStore.
type fakeEngagement struct{ *memDB }

func (f fakeEngagement) Toggle(_ context.Context, r model.Reaction, courseID, userID int64) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[courseID]
	if !ok {
		return false, 0, repository.ErrCourseNotFound
	}
	key := [2]int64{courseID, userID}
	set := f.reactions[r]
	added := !set[key]
	if added {
		set[key] = true
	} else {
		delete(set, key)
	}
	f.recompute(courseID)
	if r == model.ReactionWantsToEat {
		return added, c.WantsToEatCount, nil
	}
	return added, c.TriedCount, nil
}

func (f fakeEngagement) aggregate(courseID int64) model.RatingAggregate {
	c := f.courses[courseID]
	return model.RatingAggregate{Average: c.AverageRating, Count: c.RatingsCount}
}

func (f fakeEngagement) UpsertRating(_ context.Context, courseID, userID int64, score int) (model.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[courseID]; !ok {
		return model.RatingAggregate{}, repository.ErrCourseNotFound
	}
	f.ratings[[2]int64{courseID, userID}] = score
	f.recompute(courseID)
	return f.aggregate(courseID), nil
}

func (f fakeEngagement) DeleteRating(_ context.Context, courseID, userID int64) (model.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[courseID]; !ok {
		return model.RatingAggregate{}, repository.ErrCourseNotFound
	}
	delete(f.ratings, [2]int64{courseID, userID})
	f.recompute(courseID)
	return f.aggregate(courseID), nil
}

func (f fakeEngagement) ViewerState(_ context.Context, courseID, userID int64) (model.ViewerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{courseID, userID}
	state := model.ViewerState{
		WantsToEat: f.reactions[model.ReactionWantsToEat][key],
		Tried:      f.reactions[model.ReactionTried][key],
	}
	if score, ok := f.ratings[key]; ok {
		state.Score = &score
	}
	return state, nil
}

// fakeComments implements CommentStore.
type fakeComments struct{ *memDB }

func (f fakeComments) Create(_ context.Context, courseID, userID int64, content string) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[courseID]; !ok {
		return nil, repository.ErrCourseNotFound
	}
	c := &model.Comment{ID: f.id(), CourseID: courseID, UserID: userID, Content: content, CreatedAt: f.tick()}
	if u, ok := f.users[userID]; ok {
		c.User = model.UserSummary{ID: u.ID, Name: u.Name, Image: u.Image}
	}
	f.comments[c.ID] = c
	f.recompute(courseID)
	cp := *c
	return &cp, nil
}

func (f fakeComments) ListByCourse(_ context.Context, courseID int64) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.CourseID == courseID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeComments) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return repository.ErrCommentNotFound
	}
	delete(f.comments, id)
	f.recompute(c.CourseID)
	return nil
}

func (f fakeComments) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comments), nil
}

// fakeProducts implements ProductStore.
type fakeProducts struct{ *memDB }

func (f fakeProducts) GetByID(_ context.Context, id int64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (f fakeProducts) Search(_ context.Context, q model.ProductQuery) ([]model.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Product
	for _, p := range f.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	start := (q.Page - 1) * q.Limit
	if start >= len(all) {
		return []model.Product{}, len(all), nil
	}
	return all[start:min(start+q.Limit, len(all))], len(all), nil
}

// fakeSubmissions implements SubmissionStore.
type fakeSubmissions struct{ *memDB }

func (f fakeSubmissions) add(title string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.submissions[id] = &model.Submission{ID: id, Title: title, Status: model.StatusOpen}
	return id
}

func (f fakeSubmissions) List(_ context.Context, status model.SubmissionStatus) ([]model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Submission{}
	for _, s := range f.submissions {
		if status == "" || s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f fakeSubmissions) UpdateStatus(_ context.Context, id int64, status model.SubmissionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok {
		return repository.ErrSubmissionNotFound
	}
	s.Status = status
	return nil
}

func (f fakeSubmissions) CountByStatus(_ context.Context, status model.SubmissionStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.submissions {
		if s.Status == status {
			n++
		}
	}
	return n, nil
}

// fakeSender records outgoing mail.
type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (f *fakeSender) Send(email mailer.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeSender) last() mailer.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return mailer.Email{}
	}
	return f.sent[len(f.sent)-1]
}

const testSecret = "test-secret"

// env wires every service over one memDB with a controllable clock.
type env struct {
	db     *memDB
	mail   *fakeSender
	now    time.Time
	tokens *OneTimeTokens

	auth         *AuthService
	registration *RegistrationService
	reset        *PasswordResetService
	profile      *ProfileService
	courses      *CourseService
	engagement   *EngagementService
	comments     *CommentService
	catalog      *CatalogService
	admin        *AdminService
}

func newEnv() *env {
	e := &env{db: newMemDB(), mail: &fakeSender{}, now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	users := fakeUsers{e.db}
	courses := fakeCourses{e.db}
	comments := fakeComments{e.db}

	e.tokens = NewOneTimeTokens(fakeTokens{e.db})
	e.tokens.now = func() time.Time { return e.now }

	notify := NewNotifier(e.mail, "http://app.test")
	sessions := NewSessions(testSecret, time.Hour)

	e.auth = NewAuthService(users, e.tokens, notify, sessions, testSecret)
	e.registration = NewRegistrationService(users, e.tokens, notify, sessions)
	e.reset = NewPasswordResetService(users, e.tokens, notify)
	e.profile = NewProfileService(users, courses, sessions)
	e.courses = NewCourseService(courses)
	e.engagement = NewEngagementService(courses, fakeEngagement{e.db})
	e.comments = NewCommentService(comments, courses)
	e.catalog = NewCatalogService(fakeProducts{e.db})
	e.admin = NewAdminService(users, courses, comments, fakeSubmissions{e.db})
	return e
}

func (e *env) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

// seedUser creates an onboarded account directly in storage.
func (e *env) seedUser(email, name string) model.Identity {
	u := &model.User{Email: email, Name: name}
	if err := (fakeUsers{e.db}).Create(context.Background(), u); err != nil {
		panic(err)
	}
	return model.Identity{UserID: u.ID, Name: name}
}

func (e *env) seedCourse(owner model.Identity, title string) int64 {
	p := e.db.addProduct(title + " dish")
	id, err := e.courses.Create(context.Background(), owner, model.CourseRequest{
		Title:       title,
		Description: "test course",
		Items:       []model.CourseItemRequest{{ProductID: p, Role: model.RoleMain}},
	}, false)
	if err != nil {
		panic(err)
	}
	return id
}

// fullCourseItems returns the five mandatory slots over fresh products.
func (e *env) fullCourseItems() []model.CourseItemRequest {
	items := make([]model.CourseItemRequest, 0, len(model.MandatorySlots))
	for _, role := range model.MandatorySlots {
		items = append(items, model.CourseItemRequest{ProductID: e.db.addProduct(role), Role: role})
	}
	return items
}
