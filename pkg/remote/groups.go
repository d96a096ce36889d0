package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Group is a study group. The owner is always a member.
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:g"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description"`
	OwnerID     string    `bun:"owner_id,notnull" json:"ownerId"`
	InviteCode  string    `bun:"invite_code,notnull,unique" json:"inviteCode"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Member links a user to a group.
type Member struct {
	bun.BaseModel `bun:"table:group_members,alias:gm"`

	GroupID  string    `bun:"group_id,pk" json:"groupId"`
	UserID   string    `bun:"user_id,pk" json:"userId"`
	Role     string    `bun:"role,notnull" json:"role"`
	JoinedAt time.Time `bun:"joined_at,notnull,default:current_timestamp" json:"joinedAt"`
}

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Activity is a topic post inside a group.
type Activity struct {
	bun.BaseModel `bun:"table:group_activities,alias:ga"`

	ID        string    `bun:"id,pk" json:"id"`
	GroupID   string    `bun:"group_id,notnull" json:"groupId"`
	AuthorID  string    `bun:"author_id,notnull" json:"authorId"`
	Title     string    `bun:"title,notnull" json:"title"`
	Body      string    `bun:"body" json:"body"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// File is an attachment record. The bytes live in the blob store at Path.
type File struct {
	bun.BaseModel `bun:"table:group_files,alias:gf"`

	ID         string    `bun:"id,pk" json:"id"`
	GroupID    string    `bun:"group_id,notnull" json:"groupId"`
	UploaderID string    `bun:"uploader_id,notnull" json:"uploaderId"`
	Name       string    `bun:"name,notnull" json:"name"`
	Path       string    `bun:"path,notnull" json:"path"`
	URL        string    `bun:"url" json:"url"`
	Size       int64     `bun:"size" json:"size"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Groups is the repository of study groups, members, activities and files.
// Ownership and membership are checked before every write.
type Groups struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGroups returns a repository using db.
func NewGroups(db *bun.DB, logger *zap.Logger) *Groups {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Groups{db: db, logger: logger}
}

// NewInviteCode returns a short code users share to join a group.
func NewInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// CreateGroup creates a group owned by ownerID.
func (r *Groups) CreateGroup(ctx context.Context, ownerID, name, description string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, errors.New("remote: create group: empty name")
	}
	g := Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		InviteCode:  NewInviteCode(),
		CreatedAt:   time.Now().UTC(),
	}
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&g).Exec(ctx); err != nil {
			return err
		}
		m := Member{GroupID: g.ID, UserID: ownerID, Role: RoleOwner, JoinedAt: g.CreatedAt}
		_, err := tx.NewInsert().Model(&m).Exec(ctx)
		return err
	})
	if err != nil {
		return Group{}, fmt.Errorf("remote: create group: %w", err)
	}
	r.logger.Info("Created group", zap.String("group_id", g.ID), zap.String("owner_id", ownerID))
	return g, nil
}

// JoinGroup adds userID to the group with the invite code. Joining twice is
// not an error.
func (r *Groups) JoinGroup(ctx context.Context, userID, code string) (Group, error) {
	var g Group
	err := r.db.NewSelect().
		Model(&g).
		Where("invite_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, fmt.Errorf("remote: join group: %w", err)
	}
	m := Member{GroupID: g.ID, UserID: userID, Role: RoleMember, JoinedAt: time.Now().UTC()}
	if _, err := r.db.NewInsert().Model(&m).On("CONFLICT (group_id, user_id) DO NOTHING").Exec(ctx); err != nil {
		return Group{}, fmt.Errorf("remote: join group: %w", err)
	}
	return g, nil
}

// ListGroups returns the groups userID belongs to, newest first.
func (r *Groups) ListGroups(ctx context.Context, userID string) ([]Group, error) {
	var groups []Group
	err := r.db.NewSelect().
		Model(&groups).
		Join("JOIN group_members AS gm ON gm.group_id = g.id").
		Where("gm.user_id = ?", userID).
		Order("g.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("remote: list groups: %w", err)
	}
	return groups, nil
}

// Members lists the members of a group. The caller must be a member.
func (r *Groups) Members(ctx context.Context, groupID, userID string) ([]Member, error) {
	if err := r.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	var members []Member
	err := r.db.NewSelect().
		Model(&members).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("remote: list members: %w", err)
	}
	return members, nil
}

// LeaveGroup removes userID from a group. Owners delete the group instead.
func (r *Groups) LeaveGroup(ctx context.Context, groupID, userID string) error {
	g, err := r.group(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return fmt.Errorf("%w: the owner cannot leave, delete the group instead", ErrForbidden)
	}
	res, err := r.db.NewDelete().
		Model((*Member)(nil)).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("remote: leave group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGroup removes a group with everything in it. Only the owner may. The
// removed files are returned so their blobs can be deleted.
func (r *Groups) DeleteGroup(ctx context.Context, groupID, userID string) ([]File, error) {
	g, err := r.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.OwnerID != userID {
		return nil, ErrForbidden
	}
	var files []File
	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(&files).Where("group_id = ?", groupID).Scan(ctx); err != nil {
			return err
		}
		for _, model := range []any{(*File)(nil), (*Activity)(nil), (*Member)(nil)} {
			if _, err := tx.NewDelete().Model(model).Where("group_id = ?", groupID).Exec(ctx); err != nil {
				return err
			}
		}
		_, err := tx.NewDelete().Model((*Group)(nil)).Where("id = ?", groupID).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("remote: delete group: %w", err)
	}
	r.logger.Info("Deleted group", zap.String("group_id", groupID), zap.Int("files", len(files)))
	return files, nil
}

// AddActivity posts a topic to a group the author belongs to.
func (r *Groups) AddActivity(ctx context.Context, groupID, authorID, title, body string) (Activity, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Activity{}, errors.New("remote: add activity: empty title")
	}
	if err := r.requireMember(ctx, groupID, authorID); err != nil {
		return Activity{}, err
	}
	a := Activity{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.db.NewInsert().Model(&a).Exec(ctx); err != nil {
		return Activity{}, fmt.Errorf("remote: add activity: %w", err)
	}
	return a, nil
}

// ListActivities returns a group's posts, newest first.
func (r *Groups) ListActivities(ctx context.Context, groupID, userID string) ([]Activity, error) {
	if err := r.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	var out []Activity
	err := r.db.NewSelect().
		Model(&out).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("remote: list activities: %w", err)
	}
	return out, nil
}

// DeleteActivity removes a post. Its author or the group owner may.
func (r *Groups) DeleteActivity(ctx context.Context, id, userID string) error {
	var a Activity
	err := r.db.NewSelect().Model(&a).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remote: delete activity: %w", err)
	}
	if err := r.requireAuthorOrOwner(ctx, a.GroupID, a.AuthorID, userID); err != nil {
		return err
	}
	if _, err := r.db.NewDelete().Model((*Activity)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("remote: delete activity: %w", err)
	}
	return nil
}

// AddFile records an uploaded attachment.
func (r *Groups) AddFile(ctx context.Context, f File) (File, error) {
	if err := r.requireMember(ctx, f.GroupID, f.UploaderID); err != nil {
		return File{}, err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NewInsert().Model(&f).Exec(ctx); err != nil {
		return File{}, fmt.Errorf("remote: add file: %w", err)
	}
	return f, nil
}

// ListFiles returns a group's attachments, newest first.
func (r *Groups) ListFiles(ctx context.Context, groupID, userID string) ([]File, error) {
	if err := r.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	var out []File
	err := r.db.NewSelect().
		Model(&out).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("remote: list files: %w", err)
	}
	return out, nil
}

// DeleteFile removes an attachment record and returns it. Its uploader or the
// group owner may.
func (r *Groups) DeleteFile(ctx context.Context, id, userID string) (File, error) {
	var f File
	err := r.db.NewSelect().Model(&f).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return File{}, ErrNotFound
	}
	if err != nil {
		return File{}, fmt.Errorf("remote: delete file: %w", err)
	}
	if err := r.requireAuthorOrOwner(ctx, f.GroupID, f.UploaderID, userID); err != nil {
		return File{}, err
	}
	if _, err := r.db.NewDelete().Model((*File)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return File{}, fmt.Errorf("remote: delete file: %w", err)
	}
	return f, nil
}

func (r *Groups) group(ctx context.Context, groupID string) (Group, error) {
	var g Group
	err := r.db.NewSelect().Model(&g).Where("id = ?", groupID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, fmt.Errorf("remote: load group: %w", err)
	}
	return g, nil
}

func (r *Groups) requireMember(ctx context.Context, groupID, userID string) error {
	ok, err := r.db.NewSelect().
		Model((*Member)(nil)).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("remote: check membership: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (r *Groups) requireAuthorOrOwner(ctx context.Context, groupID, authorID, userID string) error {
	if authorID == userID {
		return nil
	}
	g, err := r.group(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}
