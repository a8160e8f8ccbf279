// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rosterd/rosterd/internal/auth"
	"github.com/rosterd/rosterd/internal/auth/postgres"
	"github.com/rosterd/rosterd/internal/store"
)

// setupDatabase starts a PostgreSQL container and migrates the schema.
func setupDatabase() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("rosterd_test"),
		tcpostgres.WithUsername("rosterd"),
		tcpostgres.WithPassword("rosterd"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	_ = migrator.Close()

	pool, err := store.Connect(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup, nil
}

var _ = Describe("UserRepository", func() {
	var (
		ctx     context.Context
		pool    *pgxpool.Pool
		cleanup func()
		repo    *postgres.UserRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		pool, cleanup, err = setupDatabase()
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewUserRepository(pool)
	})

	AfterEach(func() {
		cleanup()
	})

	newUser := func(username string) *auth.User {
		return &auth.User{
			Username:     username,
			Name:         "Test User",
			Department:   "CS",
			Class:        "2024",
			Group:        "student",
			Role:         auth.RoleStudent,
			PasswordHash: "$argon2id$digest",
		}
	}

	It("creates and finds users by each key field", func() {
		email := "alice@example.edu"
		user := newUser("alice")
		user.Email = &email
		Expect(repo.Create(ctx, user)).To(Succeed())
		Expect(user.ID).NotTo(BeZero())

		byID, err := repo.Find(ctx, auth.ByID(user.ID))
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Username).To(Equal("alice"))

		byName, err := repo.Find(ctx, auth.ByUsername("ALICE"))
		Expect(err).NotTo(HaveOccurred())
		Expect(byName.ID).To(Equal(user.ID))

		byEmail, err := repo.Find(ctx, auth.ByEmail("Alice@Example.edu"))
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(user.ID))
	})

	It("rejects duplicate usernames case-insensitively", func() {
		Expect(repo.Create(ctx, newUser("bob"))).To(Succeed())

		err := repo.Create(ctx, newUser("BOB"))
		Expect(err).To(MatchError(auth.ErrDuplicate))
	})

	It("allows multiple users without email", func() {
		Expect(repo.Create(ctx, newUser("carol"))).To(Succeed())
		Expect(repo.Create(ctx, newUser("dave"))).To(Succeed())
	})

	It("round trips tags", func() {
		user := newUser("erin")
		user.Tags = []string{"writer", "organizer"}
		Expect(repo.Create(ctx, user)).To(Succeed())

		stored, err := repo.Find(ctx, auth.ByID(user.ID))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Tags).To(Equal([]string{"writer", "organizer"}))
	})

	It("lists newest first with filters and window", func() {
		for _, name := range []string{"u1", "u2", "u3"} {
			u := newUser(name)
			Expect(repo.Create(ctx, u)).To(Succeed())
		}
		other := newUser("orphan")
		other.Department = "EE"
		Expect(repo.Create(ctx, other)).To(Succeed())

		users, err := repo.List(ctx, auth.ListQuery{Department: "CS"})
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(3))
		Expect(users[0].Username).To(Equal("u3"))

		window, err := repo.List(ctx, auth.ListQuery{Department: "CS", Begin: 1, End: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(window).To(HaveLen(2))
		Expect(window[0].Username).To(Equal("u2"))
	})

	It("updates records and audit fields", func() {
		actor := newUser("admin")
		Expect(repo.Create(ctx, actor)).To(Succeed())

		user := newUser("frank")
		Expect(repo.Create(ctx, user)).To(Succeed())

		user.Name = "Franklin"
		user.UpdatedBy = &actor.ID
		Expect(repo.Update(ctx, user)).To(Succeed())

		stored, err := repo.Find(ctx, auth.ByID(user.ID))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Name).To(Equal("Franklin"))
		Expect(stored.UpdatedBy).To(HaveValue(Equal(actor.ID)))
	})

	It("overwrites only the password with UpdatePassword", func() {
		user := newUser("grace")
		Expect(repo.Create(ctx, user)).To(Succeed())

		Expect(repo.UpdatePassword(ctx, user.ID, "$argon2id$fresh", nil)).To(Succeed())

		stored, err := repo.Find(ctx, auth.ByID(user.ID))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.PasswordHash).To(Equal("$argon2id$fresh"))
		Expect(stored.Name).To(Equal("Test User"))
	})

	It("deletes and returns the removed record", func() {
		user := newUser("henry")
		Expect(repo.Create(ctx, user)).To(Succeed())

		removed, err := repo.Delete(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(removed.Username).To(Equal("henry"))

		_, err = repo.Find(ctx, auth.ByID(user.ID))
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("reports not found for missing users", func() {
		_, err := repo.Find(ctx, auth.ByUsername("ghost"))
		Expect(err).To(MatchError(auth.ErrNotFound))

		_, err = repo.Delete(ctx, 424242)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
