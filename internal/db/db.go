package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	queryTimeout  = 5 * time.Second
	nameCacheSize = 4096
)

var (
	// ErrNotFound - запись не найдена
	ErrNotFound = errors.New("запись не найдена")
	// ErrDuplicate - нарушено ограничение уникальности
	ErrDuplicate = errors.New("запись уже существует")
	// ErrStateChanged - условное обновление не затронуло ни одной строки
	ErrStateChanged = errors.New("состояние записи изменилось")
	// ErrItemUnavailable - одна из вещей обмена уже не доступна
	ErrItemUnavailable = errors.New("вещь недоступна")
	// ErrInvalidReference - ссылка на несуществующую запись
	ErrInvalidReference = errors.New("ссылка на несуществующую запись")
)

// Store реализует доступ к PostgreSQL для всех сервисов
type Store struct {
	pool  *pgxpool.Pool
	names *lru.Cache
}

// Connect создаёт пул соединений с базой данных и проверяет его
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	// Создаем контекст с таймаутом для подключения
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Настраиваем конфигурацию пула соединений
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка при разборе URL базы данных: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пула соединений: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка при проверке соединения: %w", err)
	}

	log.Println("✅ Успешное подключение к базе данных")
	return pool, nil
}

// NewStore создаёт хранилище поверх пула соединений
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	names, err := lru.New(nameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании кэша имён: %w", err)
	}
	return &Store{pool: pool, names: names}, nil
}

// Close закрывает пул соединений
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// withTimeout ограничивает время запроса к базе данных
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool     { return pgCode(err) == "23505" }
func isForeignKeyViolation(err error) bool { return pgCode(err) == "23503" }
