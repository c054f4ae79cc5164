package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "postgis";`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		username VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		fcm_token TEXT,
		role VARCHAR(32) NOT NULL DEFAULT 'USER',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS admins (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) NOT NULL UNIQUE,
		username VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ
	);`,
	`CREATE TABLE IF NOT EXISTS staff (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		staff_id VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'STAFF',
		firebase_uid VARCHAR(128),
		credential_state VARCHAR(32) NOT NULL DEFAULT 'DEFAULT_PENDING',
		date_added DATE,
		password_reset_requested_at TIMESTAMPTZ,
		password_reset_completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS issues (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		description TEXT NOT NULL,
		using_custom_location BOOLEAN NOT NULL DEFAULT FALSE,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		custom_location TEXT,
		category VARCHAR(100) NOT NULL,
		custom_category VARCHAR(255),
		status VARCHAR(32) NOT NULL DEFAULT 'PENDING',
		photo_urls TEXT[] DEFAULT '{}',
		video_urls TEXT[] DEFAULT '{}',
		reported_by_id UUID REFERENCES users(id) ON DELETE SET NULL,
		assigned BOOLEAN NOT NULL DEFAULT FALSE,
		assigned_to_id UUID REFERENCES staff(id) ON DELETE SET NULL,
		priority VARCHAR(32),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT issues_assignment_consistent CHECK (assigned = (assigned_to_id IS NOT NULL))
	);`,
	`CREATE INDEX IF NOT EXISTS idx_issues_status ON issues (status);`,
	`CREATE INDEX IF NOT EXISTS idx_issues_assigned ON issues (assigned, assigned_to_id);`,
	`CREATE INDEX IF NOT EXISTS idx_issues_reported_by ON issues (reported_by_id);`,
	`CREATE INDEX IF NOT EXISTS idx_issues_geography ON issues
		USING GIST ((ST_MakePoint(longitude, latitude)::geography))
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS updates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		issue_id UUID NOT NULL REFERENCES issues(id),
		status VARCHAR(32) NOT NULL,
		comment TEXT,
		photo_urls TEXT[] DEFAULT '{}',
		update_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_updates_issue ON updates (issue_id, update_time);`,
	`CREATE TABLE IF NOT EXISTS issue_remarks (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		issue_id UUID NOT NULL UNIQUE REFERENCES issues(id),
		remark_type VARCHAR(8) NOT NULL,
		is_viewed BOOLEAN NOT NULL DEFAULT FALSE,
		created_by_id UUID REFERENCES admins(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS issue_remark_history (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		issue_id UUID NOT NULL REFERENCES issues(id),
		remark_type VARCHAR(8) NOT NULL,
		status_at_time VARCHAR(32),
		changed_by_id UUID REFERENCES admins(id) ON DELETE SET NULL,
		action VARCHAR(16) NOT NULL,
		changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_issue_remark_history_issue ON issue_remark_history (issue_id, changed_at);`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		kind VARCHAR(32) NOT NULL,
		payload JSONB NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_pending ON outbox_events (created_at) WHERE status = 'PENDING';`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_issues_updated_at') THEN
			CREATE TRIGGER trg_issues_updated_at
				BEFORE UPDATE ON issues
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_staff_updated_at') THEN
			CREATE TRIGGER trg_staff_updated_at
				BEFORE UPDATE ON staff
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_issue_remarks_updated_at') THEN
			CREATE TRIGGER trg_issue_remarks_updated_at
				BEFORE UPDATE ON issue_remarks
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
