package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type OwnershipPostgreSQL struct {
	base
}

func NewOwnershipPostgreSQL(db *gorm.DB) *OwnershipPostgreSQL {
	return &OwnershipPostgreSQL{base: base{db: db}}
}

// ownershipJoins maps each resource kind to the table alias that holds its id
// and the joins needed to reach the owning course (alias c).
var ownershipJoins = map[repositories.ResourceKind]struct {
	from  string
	alias string
	joins []string
}{
	repositories.ResourceCourse: {
		from:  "courses AS c",
		alias: "c",
	},
	repositories.ResourceModule: {
		from:  "course_modules AS m",
		alias: "m",
		joins: []string{"JOIN courses AS c ON c.id = m.course_id"},
	},
	repositories.ResourceLesson: {
		from:  "lessons AS l",
		alias: "l",
		joins: []string{
			"JOIN course_modules AS m ON m.id = l.module_id",
			"JOIN courses AS c ON c.id = m.course_id",
		},
	},
	repositories.ResourceQuiz: {
		from:  "quizzes AS q",
		alias: "q",
		joins: []string{
			"JOIN lessons AS l ON l.id = q.lesson_id",
			"JOIN course_modules AS m ON m.id = l.module_id",
			"JOIN courses AS c ON c.id = m.course_id",
		},
	},
	repositories.ResourceAssignment: {
		from:  "assignments AS a",
		alias: "a",
		joins: []string{
			"JOIN lessons AS l ON l.id = a.lesson_id",
			"JOIN course_modules AS m ON m.id = l.module_id",
			"JOIN courses AS c ON c.id = m.course_id",
		},
	},
}

func (r *OwnershipPostgreSQL) Resolve(ctx context.Context, tx *gorm.DB, kind repositories.ResourceKind, id uint) (*repositories.OwnershipProjection, error) {
	spec, ok := ownershipJoins[kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}

	query := r.getDB(tx).WithContext(ctx).
		Table(spec.from).
		Select(spec.alias + ".id AS resource_id, c.id AS course_id, c.created_by_id AS owner_id")
	for _, join := range spec.joins {
		query = query.Joins(join)
	}

	var projection repositories.OwnershipProjection
	err := query.
		Where(spec.alias+".id = ? AND c.is_deleted = ?", id, false).
		Take(&projection).Error
	if err != nil {
		return nil, err
	}
	if projection.ResourceID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &projection, nil
}
