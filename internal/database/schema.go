package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema is the full DDL for the application. EnsureSchema applies it on
// startup; every statement is idempotent so repeated boots are safe.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id                 BIGSERIAL PRIMARY KEY,
	sign_in_count      INTEGER NOT NULL DEFAULT 0,
	current_sign_in_on TIMESTAMPTZ,
	current_sign_in_ip VARCHAR(45),
	last_sign_in_on    TIMESTAMPTZ,
	last_sign_in_ip    VARCHAR(45),
	created_on         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_on         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS auths (
	id       BIGSERIAL PRIMARY KEY,
	username VARCHAR(32) NOT NULL UNIQUE,
	email    VARCHAR(128) NOT NULL UNIQUE,
	password VARCHAR(128) NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_admin  BOOLEAN NOT NULL DEFAULT FALSE,
	user_id  BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE
);

CREATE TABLE IF NOT EXISTS profiles (
	id      BIGSERIAL PRIMARY KEY,
	name    VARCHAR(128) NOT NULL,
	avatar  VARCHAR(128),
	dob     TIMESTAMPTZ,
	bio     VARCHAR(255),
	user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE
);

CREATE TABLE IF NOT EXISTS follows (
	follower_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
	followed_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
	created_on  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (follower_id, followed_id)
);

CREATE TABLE IF NOT EXISTS posts (
	id         BIGSERIAL PRIMARY KEY,
	body       TEXT NOT NULL,
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
	-- no FK: comments outlive their parent post, the reference may dangle
	parent_id  BIGINT,
	created_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS posts_user_created_idx ON posts (user_id, created_on DESC);
CREATE INDEX IF NOT EXISTS posts_parent_idx ON posts (parent_id);

CREATE TABLE IF NOT EXISTS post_likes (
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
	post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE ON UPDATE CASCADE,
	PRIMARY KEY (user_id, post_id)
);

CREATE TABLE IF NOT EXISTS tags (
	id   BIGSERIAL PRIMARY KEY,
	name VARCHAR(16) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS user_tags (
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
	tag_id  BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE ON UPDATE CASCADE,
	PRIMARY KEY (user_id, tag_id)
);

CREATE TABLE IF NOT EXISTS conversations (
	id       BIGSERIAL PRIMARY KEY,
	user1_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	user2_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	UNIQUE (user1_id, user2_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id              BIGSERIAL PRIMARY KEY,
	body            TEXT NOT NULL,
	author_id       BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	created_on      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS messages_conv_created_idx ON messages (conversation_id, created_on DESC);

CREATE TABLE IF NOT EXISTS last_read_messages (
	user_id         BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	timestamp       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, conversation_id)
);

CREATE TABLE IF NOT EXISTS deleted_messages (
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
	message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE ON UPDATE CASCADE,
	PRIMARY KEY (user_id, message_id)
);
`

// EnsureSchema creates all tables and indexes if they do not exist yet.
func EnsureSchema(db *sqlx.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
