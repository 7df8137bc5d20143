package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// Утилита для ручного управления миграциями: up, down на один шаг,
// force для очистки dirty-состояния после упавшей миграции.
//
//	go run ./cmd/migrate -cmd up
//	go run ./cmd/migrate -cmd force -version 3
func main() {
	cmd := flag.String("cmd", "up", "команда: up, down, force, version")
	version := flag.Int("version", -1, "версия для force")
	path := flag.String("path", "file://migrations", "источник миграций")
	flag.Parse()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOr("DATABASE_HOST", "localhost"),
		envOr("DATABASE_PORT", "5432"),
		envOr("DATABASE_USER", "postgres"),
		os.Getenv("DATABASE_PASSWORD"),
		envOr("DATABASE_DBNAME", "brainbolt_db"),
		envOr("DATABASE_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithDatabaseInstance(*path, "postgres", driver)
	if err != nil {
		log.Fatal(err)
	}

	switch *cmd {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Up failed: %v", err)
		}
		fmt.Println("Миграции применены")
	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatalf("Down failed: %v", err)
		}
		fmt.Println("Откат на один шаг выполнен")
	case "force":
		if *version < 0 {
			log.Fatal("force требует -version")
		}
		if err := m.Force(*version); err != nil {
			log.Fatalf("Force failed: %v", err)
		}
		fmt.Printf("Версия принудительно установлена: %d (dirty-состояние сброшено)\n", *version)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("Version failed: %v", err)
		}
		fmt.Println("Текущая версия:", v, "dirty:", strconv.FormatBool(dirty))
	default:
		log.Fatalf("Неизвестная команда: %s", *cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
