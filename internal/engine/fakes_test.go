package engine

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"docflow/internal/core/ports"
	"docflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeStore is an in-memory implementation of every port the engine
// consumes. Mutations take the mutex so the concurrency tests exercise
// the same exactly-once guarantee the guarded UPDATE provides in postgres.
type fakeStore struct {
	mu sync.Mutex

	workflows   []*domain.Workflow
	nodes       []*domain.Node
	connections []*domain.Connection
	documents   map[uuid.UUID]*domain.Document
	tasks       map[uuid.UUID]*domain.ApprovalTask
	history     []domain.DocumentStateHistory
	users       map[uuid.UUID]*domain.User
	roles       map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		documents: make(map[uuid.UUID]*domain.Document),
		tasks:     make(map[uuid.UUID]*domain.ApprovalTask),
		users:     make(map[uuid.UUID]*domain.User),
		roles:     make(map[uuid.UUID]bool),
	}
}

// --- GraphRepository ---

func (s *fakeStore) FindNodeByID(_ context.Context, id uuid.UUID) (*domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, node := range s.nodes {
		if node.ID == id {
			copied := *node
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) OutgoingConnections(_ context.Context, sourceNodeID uuid.UUID) ([]domain.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Connection
	for _, conn := range s.connections {
		if conn.SourceNodeID != sourceNodeID {
			continue
		}
		copied := *conn
		for _, node := range s.nodes {
			if node.ID == conn.TargetNodeID {
				target := *node
				copied.TargetNode = &target
				break
			}
		}
		out = append(out, copied)
	}
	return out, nil
}

func (s *fakeStore) StateNodes(_ context.Context, workflowID uuid.UUID) ([]domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Node
	for _, node := range s.nodes {
		if node.WorkflowID == workflowID && node.Kind == domain.NodeState {
			out = append(out, *node)
		}
	}
	return out, nil
}

func (s *fakeStore) ActiveWorkflow(_ context.Context, documentTypeID uuid.UUID) (*domain.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, wf := range s.workflows {
		if wf.DocumentTypeID == documentTypeID && wf.IsActive {
			copied := *wf
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) DeleteNode(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.tasks {
		if task.NodeID == id && task.Status == domain.TaskPending {
			return ports.ErrNodeReferenced
		}
	}
	kept := s.connections[:0]
	for _, conn := range s.connections {
		if conn.SourceNodeID != id && conn.TargetNodeID != id {
			kept = append(kept, conn)
		}
	}
	s.connections = kept
	for i, node := range s.nodes {
		if node.ID == id {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			break
		}
	}
	return nil
}

// --- TaskRepository ---

func (s *fakeStore) Create(_ context.Context, task *domain.ApprovalTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*domain.ApprovalTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeStore) ListPendingForUser(_ context.Context, userID uuid.UUID, roleIDs []uuid.UUID, documentTypeID *uuid.UUID) ([]domain.ApprovalTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ApprovalTask
	for _, task := range s.tasks {
		if task.Status != domain.TaskPending {
			continue
		}
		if !assignedTo(task, userID, roleIDs) {
			continue
		}
		if documentTypeID != nil {
			doc, ok := s.documents[task.DocumentID]
			if !ok || doc.DocumentTypeID != *documentTypeID {
				continue
			}
		}
		out = append(out, *task)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *fakeStore) ExistsForAssignee(_ context.Context, documentID, userID uuid.UUID, roleIDs []uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.tasks {
		if task.DocumentID == documentID && assignedTo(task, userID, roleIDs) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ResolveApproval(_ context.Context, p ports.ResolveApprovalParams) (*domain.DocumentStateHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[p.TaskID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if task.Status != domain.TaskPending {
		return nil, ports.ErrTaskNotPending
	}

	doc, ok := s.documents[p.DocumentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	now := time.Now()
	actor := p.ActorID
	task.Status = domain.TaskCompleted
	task.CompletedBy = &actor
	task.CompletedAt = &now
	task.ActionTaken = p.ActionKey
	task.Comment = p.Comment

	fromState := doc.CurrentState
	doc.CurrentState = p.ToState

	target := p.TargetNodeID
	history := domain.DocumentStateHistory{
		ID:             uuid.New(),
		DocumentID:     p.DocumentID,
		FromState:      fromState,
		ToState:        p.ToState,
		TransitionedBy: &actor,
		ActionKey:      p.ActionKey,
		ActionLabel:    p.ActionLabel,
		Comment:        p.Comment,
		NodeID:         &target,
		Metadata:       p.Metadata,
		CreatedAt:      now,
	}
	s.history = append(s.history, history)

	for _, sibling := range s.tasks {
		if sibling.ID != p.TaskID &&
			sibling.DocumentID == p.DocumentID &&
			sibling.NodeID == p.NodeID &&
			sibling.Status == domain.TaskPending {
			sibling.Status = domain.TaskCancelled
		}
	}

	return &history, nil
}

func (s *fakeStore) ExpireOverdue(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []uuid.UUID
	for _, task := range s.tasks {
		if task.Status == domain.TaskPending && task.DueDate != nil && task.DueDate.Before(now) {
			task.Status = domain.TaskExpired
			expired = append(expired, task.ID)
		}
	}
	return expired, nil
}

// --- DocumentRepository ---

// fakeDocuments wraps the store because the document FindByID signature
// collides with the task one.
type fakeDocuments struct {
	s *fakeStore
}

func (d *fakeDocuments) FindByID(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	doc, ok := d.s.documents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *doc
	return &copied, nil
}

func (d *fakeDocuments) History(_ context.Context, documentID uuid.UUID) ([]domain.DocumentStateHistory, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var out []domain.DocumentStateHistory
	for i := len(d.s.history) - 1; i >= 0; i-- {
		if d.s.history[i].DocumentID == documentID {
			out = append(out, d.s.history[i])
		}
	}
	return out, nil
}

// --- Directory ---

func (s *fakeStore) FindUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) RoleExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles[id], nil
}

// --- graph builders ---

func rawJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func (s *fakeStore) addWorkflow(documentTypeID uuid.UUID, active bool) *domain.Workflow {
	wf := &domain.Workflow{
		ID:             uuid.New(),
		DocumentTypeID: documentTypeID,
		Name:           "test workflow",
		IsActive:       active,
		CreatedAt:      time.Now(),
	}
	s.workflows = append(s.workflows, wf)
	return wf
}

func (s *fakeStore) addNode(workflowID uuid.UUID, kind domain.NodeKind, label string, config any) *domain.Node {
	node := domain.NewNode(workflowID, kind, label)
	node.Config = rawJSON(config)
	s.nodes = append(s.nodes, node)
	return node
}

func (s *fakeStore) addConnection(workflowID, source, target uuid.UUID, actionConfig any) *domain.Connection {
	conn := domain.NewConnection(workflowID, source, target)
	conn.ActionConfig = rawJSON(actionConfig)
	conn.CreatedAt = time.Now().Add(time.Duration(len(s.connections)) * time.Millisecond)
	s.connections = append(s.connections, conn)
	return conn
}

func (s *fakeStore) addDocument(documentTypeID, submittedBy uuid.UUID, currentState string, data any) *domain.Document {
	doc := &domain.Document{
		ID:             uuid.New(),
		DocumentTypeID: documentTypeID,
		Data:           rawJSON(data),
		CurrentState:   currentState,
		SubmittedBy:    submittedBy,
		CreatedAt:      time.Now(),
	}
	s.documents[doc.ID] = doc
	return doc
}

func (s *fakeStore) addUser(managerID *uuid.UUID, roleIDs ...uuid.UUID) *domain.User {
	user := &domain.User{
		ID:        uuid.New(),
		Username:  "user-" + uuid.NewString()[:8],
		ManagerID: managerID,
	}
	if len(roleIDs) > 0 {
		ids := make([]string, 0, len(roleIDs))
		for _, id := range roleIDs {
			ids = append(ids, id.String())
		}
		user.RoleIDs = rawJSON(ids)
	}
	s.users[user.ID] = user
	return user
}

func (s *fakeStore) addRole() uuid.UUID {
	id := uuid.New()
	s.roles[id] = true
	return id
}

func newTestEngine(s *fakeStore) *Engine {
	return New(s, s, &fakeDocuments{s}, s, nil, nil)
}

func assignedTo(task *domain.ApprovalTask, userID uuid.UUID, roleIDs []uuid.UUID) bool {
	var users, roles []string
	if len(task.AssignedUsers) > 0 {
		_ = json.Unmarshal(task.AssignedUsers, &users)
	}
	if len(task.AssignedRoles) > 0 {
		_ = json.Unmarshal(task.AssignedRoles, &roles)
	}
	for _, u := range users {
		if u == userID.String() {
			return true
		}
	}
	for _, roleID := range roleIDs {
		for _, r := range roles {
			if r == roleID.String() {
				return true
			}
		}
	}
	return false
}
