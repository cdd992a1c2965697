package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/repository"
)

const taskColumns = `
	id, user_id, category_id, title, description, difficulty, importance, type,
	due_at, time_of_day,
	recurrence_frequency, recurrence_interval, recurrence_by_weekday, recurrence_by_monthday,
	recurrence_start_date, recurrence_end_date, recurrence_anchor_date,
	reminder_enabled, reminder_before_minutes,
	created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetOwned(ctx context.Context, id, userID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	row := r.pool.QueryRow(ctx, query, id, userID)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	  AND ($2 = '' OR type = $2)
	  AND ($3 = '' OR recurrence_frequency = $3)
	ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, string(filter.Type), string(filter.Frequency))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (
		id, user_id, category_id, title, description, difficulty, importance, type,
		due_at, time_of_day,
		recurrence_frequency, recurrence_interval, recurrence_by_weekday, recurrence_by_monthday,
		recurrence_start_date, recurrence_end_date, recurrence_anchor_date,
		reminder_enabled, reminder_before_minutes
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		nullString(task.CategoryID),
		task.Title,
		task.Description,
		task.Difficulty,
		task.Importance,
		string(task.Type),
		task.DueAt,
		nullString(task.TimeOfDay),
		nullString(string(task.Frequency)),
		task.Interval,
		task.ByWeekday,
		task.ByMonthday,
		nullDay(task.StartDate),
		nullDay(task.EndDate),
		nullDay(task.AnchorDate),
		task.ReminderEnabled,
		task.ReminderLeadMinutes,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET category_id = $3,
		title = $4,
		description = $5,
		difficulty = $6,
		importance = $7,
		type = $8,
		due_at = $9,
		time_of_day = $10,
		recurrence_frequency = $11,
		recurrence_interval = $12,
		recurrence_by_weekday = $13,
		recurrence_by_monthday = $14,
		recurrence_start_date = $15,
		recurrence_end_date = $16,
		recurrence_anchor_date = $17,
		reminder_enabled = $18,
		reminder_before_minutes = $19,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		nullString(task.CategoryID),
		task.Title,
		task.Description,
		task.Difficulty,
		task.Importance,
		string(task.Type),
		task.DueAt,
		nullString(task.TimeOfDay),
		nullString(string(task.Frequency)),
		task.Interval,
		task.ByWeekday,
		task.ByMonthday,
		nullDay(task.StartDate),
		nullDay(task.EndDate),
		nullDay(task.AnchorDate),
		task.ReminderEnabled,
		task.ReminderLeadMinutes,
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id, userID string) error {
	// Completion rows go with the task via ON DELETE CASCADE.
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		categoryID *string
		taskType   string
		timeOfDay  *string
		frequency  *string
		startDate  *time.Time
		endDate    *time.Time
		anchorDate *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&categoryID,
		&task.Title,
		&task.Description,
		&task.Difficulty,
		&task.Importance,
		&taskType,
		&task.DueAt,
		&timeOfDay,
		&frequency,
		&task.Interval,
		&task.ByWeekday,
		&task.ByMonthday,
		&startDate,
		&endDate,
		&anchorDate,
		&task.ReminderEnabled,
		&task.ReminderLeadMinutes,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.CategoryID = stringValue(categoryID)
	task.Type = domain.TaskType(taskType)
	task.TimeOfDay = stringValue(timeOfDay)
	task.Frequency = domain.Frequency(stringValue(frequency))
	task.StartDate = dayString(startDate)
	task.EndDate = dayString(endDate)
	task.AnchorDate = dayString(anchorDate)

	return &task, nil
}
