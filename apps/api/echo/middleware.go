package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jukutrack/core/student"
)

const contextStudentKey = "student"

// studentOwnerMiddleware loads the student referenced by the `:id` path param
// and hides it behind a 404 when it belongs to another school.
func studentOwnerMiddleware(svc student.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			stu, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			if stu.SchoolID != claims.Subject {
				return errHttpNotFound
			}

			ctx.Set(contextStudentKey, stu)
			return next(ctx)
		}
	}
}

func getContextStudent(ctx echo.Context) (student.Student, error) {
	if stu, ok := ctx.Get(contextStudentKey).(student.Student); ok {
		return stu, nil
	}
	return student.Student{}, errHttpNotFound
}
