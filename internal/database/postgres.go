package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rootedtogether/rooted/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrSelfMessage        = errors.New("cannot message yourself")
	ErrConnectionExists   = errors.New("connection already exists")
	ErrConnectionNotFound = errors.New("connection not found")
)

type PostgresStore struct {
	*sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db}, nil
}

func (db *PostgresStore) CreateUser(username, email, passwordHash string) (*models.User, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE username = $1 OR email = $2",
		username, email).Scan(&count)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		LastSeen:     time.Now().UTC(),
	}

	_, err = db.Exec(
		"INSERT INTO users (id, username, email, password_hash, created_at, last_seen) VALUES ($1, $2, $3, $4, $5, $6)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.LastSeen,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

const userColumns = `
	id, username, email, password_hash,
	COALESCE(display_name, ''), COALESCE(bio, ''), COALESCE(location_text, ''),
	COALESCE(growing_zone, ''), COALESCE(experience_level, ''), COALESCE(avatar_url, ''),
	created_at, last_seen`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.Bio, &user.LocationText,
		&user.GrowingZone, &user.ExperienceLevel, &user.AvatarURL,
		&user.CreatedAt, &user.LastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *PostgresStore) GetUserByEmail(email string) (*models.User, error) {
	return scanUser(db.QueryRow("SELECT"+userColumns+" FROM users WHERE email = $1", email))
}

func (db *PostgresStore) GetUserByID(id uuid.UUID) (*models.User, error) {
	return scanUser(db.QueryRow("SELECT"+userColumns+" FROM users WHERE id = $1", id))
}

func (db *PostgresStore) UpdateProfile(userID uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	result, err := db.Exec(`
		UPDATE users
		SET display_name = $1, bio = $2, location_text = $3,
		    growing_zone = $4, experience_level = $5, avatar_url = $6
		WHERE id = $7`,
		update.DisplayName, update.Bio, update.LocationText,
		update.GrowingZone, update.ExperienceLevel, update.AvatarURL, userID,
	)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	return db.GetUserByID(userID)
}

func (db *PostgresStore) UpdateLastSeen(userID uuid.UUID) error {
	result, err := db.Exec("UPDATE users SET last_seen = $1 WHERE id = $2",
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetProfile returns the display subset of a user, the read-side join the
// conversation aggregator performs per partner.
func (db *PostgresStore) GetProfile(id uuid.UUID) (*models.ProfileSummary, error) {
	user, err := db.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	return user.Summary(), nil
}

func (db *PostgresStore) SearchProfiles(filter ProfileFilter) ([]*models.ProfileSummary, error) {
	query := `
		SELECT id, username, COALESCE(display_name, ''), COALESCE(avatar_url, ''),
		       COALESCE(growing_zone, ''), COALESCE(experience_level, '')
		FROM users
		WHERE id != $1`
	args := []interface{}{filter.Exclude}

	if filter.GrowingZone != "" {
		args = append(args, filter.GrowingZone)
		query += fmt.Sprintf(" AND growing_zone = $%d", len(args))
	}
	if filter.ExperienceLevel != "" {
		args = append(args, filter.ExperienceLevel)
		query += fmt.Sprintf(" AND experience_level = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (username ILIKE $%d OR display_name ILIKE $%d OR bio ILIKE $%d)", n, n, n)
	}

	query += " ORDER BY username"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.ProfileSummary
	for rows.Next() {
		var p models.ProfileSummary
		err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL,
			&p.GrowingZone, &p.ExperienceLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile rows: %w", err)
	}

	return profiles, nil
}

func (db *PostgresStore) AppendMessage(sender, recipient uuid.UUID, content string) (*models.Message, error) {
	if sender == recipient {
		return nil, ErrSelfMessage
	}

	_, err := db.GetUserByID(sender)
	if err != nil {
		return nil, err
	}

	_, err = db.GetUserByID(recipient)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:          uuid.New(),
		SenderID:    sender,
		RecipientID: recipient,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = db.Exec(
		"INSERT INTO messages (id, sender_id, recipient_id, content, created_at) VALUES ($1, $2, $3, $4, $5)",
		message.ID, message.SenderID, message.RecipientID, message.Content, message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return message, nil
}

func scanMessages(rows *sql.Rows) ([]*models.Message, error) {
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		var readAt sql.NullTime

		err := rows.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Content, &msg.CreatedAt, &readAt)
		if err != nil {
			return nil, err
		}

		if readAt.Valid {
			msg.ReadAt = &readAt.Time
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// ListMessagesFor returns every message the viewer sent or received, newest
// first. The conversation aggregator depends on this exact ordering; ties on
// created_at fall back to id so the order stays stable across calls. Ids are
// random UUIDs, so the tie winner is stable but not an insertion order.
func (db *PostgresStore) ListMessagesFor(viewer uuid.UUID) ([]*models.Message, error) {
	rows, err := db.Query(
		`SELECT id, sender_id, recipient_id, content, created_at, read_at
		FROM messages
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC, id DESC`,
		viewer,
	)
	if err != nil {
		return nil, err
	}

	return scanMessages(rows)
}

// ListThread returns the full exchange between viewer and partner, oldest
// first, ready for chronological display.
func (db *PostgresStore) ListThread(viewer, partner uuid.UUID) ([]*models.Message, error) {
	rows, err := db.Query(
		`SELECT id, sender_id, recipient_id, content, created_at, read_at
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at ASC, id ASC`,
		viewer, partner,
	)
	if err != nil {
		return nil, err
	}

	return scanMessages(rows)
}

// MarkThreadRead stamps read_at on every unread message from partner to
// viewer and returns how many rows changed. Matching zero rows is a normal
// outcome for an already-read thread, not an error.
func (db *PostgresStore) MarkThreadRead(viewer, partner uuid.UUID) (int64, error) {
	result, err := db.Exec(
		"UPDATE messages SET read_at = $1 WHERE recipient_id = $2 AND sender_id = $3 AND read_at IS NULL",
		time.Now().UTC(), viewer, partner,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (db *PostgresStore) CreatePost(author uuid.UUID, req models.CreatePostRequest) (*models.Post, error) {
	if _, err := db.GetUserByID(author); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:          uuid.New(),
		AuthorID:    author,
		Title:       req.Title,
		Content:     req.Content,
		GrowingZone: req.GrowingZone,
		Tags:        req.Tags,
		ImageURL:    req.ImageURL,
		CreatedAt:   time.Now().UTC(),
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	_, err := db.Exec(
		"INSERT INTO posts (id, author_id, title, content, growing_zone, tags, image_url, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		post.ID, post.AuthorID, post.Title, post.Content, post.GrowingZone,
		pq.Array(post.Tags), post.ImageURL, post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (db *PostgresStore) ListPosts(limit int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT p.id, p.author_id, p.title, p.content, COALESCE(p.growing_zone, ''),
		       p.tags, COALESCE(p.image_url, ''), p.created_at,
		       u.username, COALESCE(u.display_name, ''), COALESCE(u.avatar_url, ''),
		       COALESCE(u.growing_zone, ''), COALESCE(u.experience_level, '')
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		var author models.ProfileSummary

		err := rows.Scan(
			&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.GrowingZone,
			pq.Array(&post.Tags), &post.ImageURL, &post.CreatedAt,
			&author.Username, &author.DisplayName, &author.AvatarURL,
			&author.GrowingZone, &author.ExperienceLevel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}

		author.ID = post.AuthorID
		post.Author = &author
		posts = append(posts, &post)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

func (db *PostgresStore) CreateConnection(requester, addressee uuid.UUID) (*models.Connection, error) {
	if requester == addressee {
		return nil, ErrSelfMessage
	}

	if _, err := db.GetUserByID(addressee); err != nil {
		return nil, err
	}

	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM connections WHERE (requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1)",
		requester, addressee).Scan(&count)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrConnectionExists
	}

	conn := &models.Connection{
		ID:          uuid.New(),
		RequesterID: requester,
		AddresseeID: addressee,
		Status:      models.ConnectionPending,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = db.Exec(
		"INSERT INTO connections (id, requester_id, addressee_id, status, created_at) VALUES ($1, $2, $3, $4, $5)",
		conn.ID, conn.RequesterID, conn.AddresseeID, conn.Status, conn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// UpdateConnectionStatus transitions a pending connection. Only the addressee
// may accept or block, so the actor is part of the match.
func (db *PostgresStore) UpdateConnectionStatus(id, actor uuid.UUID, status string) (*models.Connection, error) {
	result, err := db.Exec(
		"UPDATE connections SET status = $1 WHERE id = $2 AND addressee_id = $3",
		status, id, actor,
	)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrConnectionNotFound
	}

	var conn models.Connection
	err = db.QueryRow(
		"SELECT id, requester_id, addressee_id, status, created_at FROM connections WHERE id = $1",
		id).Scan(&conn.ID, &conn.RequesterID, &conn.AddresseeID, &conn.Status, &conn.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &conn, nil
}

func (db *PostgresStore) ListConnectionsFor(userID uuid.UUID) ([]*models.Connection, error) {
	rows, err := db.Query(
		`SELECT id, requester_id, addressee_id, status, created_at
		FROM connections
		WHERE requester_id = $1 OR addressee_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []*models.Connection
	for rows.Next() {
		var conn models.Connection
		err := rows.Scan(&conn.ID, &conn.RequesterID, &conn.AddresseeID, &conn.Status, &conn.CreatedAt)
		if err != nil {
			return nil, err
		}
		conns = append(conns, &conn)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return conns, nil
}

func (db *PostgresStore) Close() error {
	return db.DB.Close()
}
