package db

import (
	"context"
	"fmt"
	"log"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT UNIQUE,
	password_hash TEXT,
	telegram_id   BIGINT UNIQUE,
	name          TEXT NOT NULL,
	location      TEXT,
	avatar_url    TEXT,
	bio           TEXT,
	phone         TEXT,
	rating        DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating_count  INTEGER NOT NULL DEFAULT 0,
	swap_points   INTEGER NOT NULL DEFAULT 0,
	is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
	is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ngos (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT,
	city          TEXT,
	country       TEXT,
	categories    TEXT[] NOT NULL DEFAULT '{}',
	contact_email TEXT,
	website       TEXT,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS items (
	id              UUID PRIMARY KEY,
	owner_id        UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL,
	category        TEXT NOT NULL,
	condition       TEXT NOT NULL CHECK (condition IN ('NEW', 'GOOD', 'USED', 'POOR')),
	location        TEXT,
	status          TEXT NOT NULL DEFAULT 'AVAILABLE' CHECK (status IN ('AVAILABLE', 'SWAPPED', 'ARCHIVED')),
	is_for_swap     BOOLEAN NOT NULL DEFAULT TRUE,
	is_for_donation BOOLEAN NOT NULL DEFAULT FALSE,
	ngo_id          UUID REFERENCES ngos(id),
	tags            TEXT[] NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS items_status_created_idx ON items (status, created_at DESC);
CREATE INDEX IF NOT EXISTS items_owner_idx ON items (owner_id);

CREATE TABLE IF NOT EXISTS item_images (
	item_id  UUID NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	url      TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (item_id, position)
);

CREATE TABLE IF NOT EXISTS swaps (
	id                UUID PRIMARY KEY,
	requester_id      UUID NOT NULL REFERENCES users(id),
	responder_id      UUID NOT NULL REFERENCES users(id),
	requested_item_id UUID NOT NULL REFERENCES items(id),
	offered_item_id   UUID NOT NULL REFERENCES items(id),
	status            TEXT NOT NULL DEFAULT 'PENDING'
		CHECK (status IN ('PENDING', 'ACCEPTED', 'REJECTED', 'CANCELLED', 'COMPLETED')),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (requester_id <> responder_id)
);
CREATE INDEX IF NOT EXISTS swaps_requester_idx ON swaps (requester_id);
CREATE INDEX IF NOT EXISTS swaps_responder_idx ON swaps (responder_id);

CREATE TABLE IF NOT EXISTS chat_rooms (
	id            UUID PRIMARY KEY,
	swap_id       UUID UNIQUE REFERENCES swaps(id) ON DELETE CASCADE,
	participant_a UUID REFERENCES users(id),
	participant_b UUID REFERENCES users(id),
	item_id       UUID REFERENCES items(id) ON DELETE SET NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT chat_rooms_scope CHECK (
		(swap_id IS NOT NULL AND participant_a IS NULL AND participant_b IS NULL AND item_id IS NULL)
		OR (swap_id IS NULL AND participant_a IS NOT NULL AND participant_b IS NOT NULL AND participant_a < participant_b)
	),
	CONSTRAINT chat_rooms_pair UNIQUE (participant_a, participant_b)
);

CREATE TABLE IF NOT EXISTS messages (
	id         UUID PRIMARY KEY,
	room_id    UUID NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
	sender_id  UUID NOT NULL REFERENCES users(id),
	body       TEXT NOT NULL CHECK (char_length(body) BETWEEN 1 AND 5000),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS messages_room_created_idx ON messages (room_id, created_at);

CREATE TABLE IF NOT EXISTS ratings (
	id           UUID PRIMARY KEY,
	from_user_id UUID NOT NULL REFERENCES users(id),
	to_user_id   UUID NOT NULL REFERENCES users(id),
	swap_id      UUID NOT NULL REFERENCES swaps(id),
	score        INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT ratings_once_per_swap UNIQUE (from_user_id, swap_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type       TEXT NOT NULL,
	message    TEXT NOT NULL,
	link       TEXT,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS notifications_user_created_idx ON notifications (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS deleted_contacts (
	user_id            UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	deleted_contact_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, deleted_contact_id)
);

CREATE TABLE IF NOT EXISTS saved_items (
	user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	item_id    UUID NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, item_id)
);

CREATE TABLE IF NOT EXISTS reports (
	id             UUID PRIMARY KEY,
	reporter_id    UUID NOT NULL REFERENCES users(id),
	target_user_id UUID REFERENCES users(id),
	target_item_id UUID REFERENCES items(id),
	target_swap_id UUID REFERENCES swaps(id),
	reason         TEXT NOT NULL,
	details        TEXT,
	status         TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'RESOLVED')),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate создаёт недостающие таблицы и индексы
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ошибка при применении схемы: %w", err)
	}
	log.Println("✅ Схема базы данных применена")
	return nil
}
