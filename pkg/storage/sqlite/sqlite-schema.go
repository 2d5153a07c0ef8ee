package sqlite

// Role identifiers seeded with the schema; users default to RoleUser.
const (
	RoleAdmin int64 = 1
	RoleUser  int64 = 2
)

const schema = `
BEGIN TRANSACTION;

CREATE TABLE
	IF NOT EXISTS roles (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

CREATE TABLE
	IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		login TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		full_name TEXT,
		email TEXT NOT NULL UNIQUE,
		avatar TEXT NOT NULL DEFAULT 'user_photo.png',
		role_id INTEGER NOT NULL DEFAULT 2,
		created_at datetime NOT NULL,
		FOREIGN KEY (role_id) REFERENCES roles (id)
	);

CREATE TABLE
	IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		author_id INTEGER NOT NULL,
		created_at datetime NOT NULL,
		updated_at datetime NOT NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
		content TEXT NOT NULL,
		FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE
	);

CREATE TABLE
	IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT 'No description'
	);

CREATE TABLE
	IF NOT EXISTS post_categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		category_id INTEGER NOT NULL,
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE,
		FOREIGN KEY (category_id) REFERENCES categories (id) ON DELETE CASCADE
	);

CREATE INDEX IF NOT EXISTS "Post Categories Index" ON "post_categories" ("post_id");

CREATE TABLE
	IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		created_at datetime NOT NULL,
		updated_at datetime NOT NULL,
		content TEXT NOT NULL,
		FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
	);

CREATE TABLE
	IF NOT EXISTS likes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER NOT NULL,
		target_id INTEGER NOT NULL,
		target_type TEXT NOT NULL CHECK (target_type IN ('post', 'comment')),
		published_at datetime NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('like', 'dislike')),
		UNIQUE (author_id, target_id, target_type),
		FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE
	);

CREATE TABLE
	IF NOT EXISTS password_reset_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at datetime NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	);

COMMIT;
`

// seed is applied at every start, on new and existing databases alike
const seed = `INSERT OR IGNORE INTO roles (id, name) VALUES (1, 'admin'), (2, 'user');`
