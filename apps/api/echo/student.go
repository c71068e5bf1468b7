package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jukutrack/core/student"
)

type studentApi struct {
	svc      student.ServiceInterface
	validate *validator.Validate
}

func registerStudentAPI(app *echo.Echo, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:      deps.StudentSvc,
		validate: deps.Validate,
	}

	sg := app.Group("/students", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)

	// detail routes resolve ownership first; foreign students 404
	dg := sg.Group("/:id", studentOwnerMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)

	dg.POST("/records", api.recordCreate)
	dg.GET("/records/:rid", api.recordRetrieve)
	dg.PUT("/records/:rid", api.recordUpdate)
	dg.DELETE("/records/:rid", api.recordDestroy)

	dg.POST("/textbooks", api.textbookCreate)
	dg.PATCH("/textbooks/:tid", api.textbookPatch)
	dg.DELETE("/textbooks/:tid", api.textbookDestroy)
}

// trapNotFound converts domain lookup failures into an opaque 404.
func trapNotFound(err error) error {
	switch errors.Cause(err) {
	case student.ErrNotFound, student.ErrRecordNotFound, student.ErrTextbookNotFound:
		return errHttpNotFound
	}
	return err
}

func (api *studentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return err
	}
	filter.Clean()

	var ordering Ordering
	ordering.Bind(ctx)

	students, err := api.svc.QueryBySchool(ctx.Request().Context(), claims.Subject, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	data := new(student.NewStudent)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stu, err := api.svc.Create(ctx.Request().Context(), claims.Subject, *data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) update(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	data := new(student.UpdateStudent)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(stu, api.validate); err != nil {
		return err
	}

	stu, err = api.svc.Update(ctx.Request().Context(), stu.ID, *data)
	if err != nil {
		return trapNotFound(errors.Wrap(err, "updating student"))
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), stu.ID); err != nil {
		return trapNotFound(errors.Wrap(err, "deleting student"))
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) recordCreate(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	data := new(student.NewRecord)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.AddRecord(ctx.Request().Context(), stu.ID, *data)
	if err != nil {
		return trapNotFound(errors.Wrap(err, "adding record"))
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *studentApi) recordRetrieve(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	rec, err := api.svc.GetRecord(ctx.Request().Context(), stu.ID, ctx.Param("rid"))
	if err != nil {
		return trapNotFound(errors.Wrap(err, "finding record"))
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *studentApi) recordUpdate(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	data := new(student.UpdateRecord)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.UpdateRecord(ctx.Request().Context(), stu.ID, ctx.Param("rid"), *data)
	if err != nil {
		return trapNotFound(errors.Wrap(err, "updating record"))
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *studentApi) recordDestroy(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteRecord(ctx.Request().Context(), stu.ID, ctx.Param("rid")); err != nil {
		return trapNotFound(errors.Wrap(err, "deleting record"))
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) textbookCreate(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	data := new(student.NewTextbook)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tb, err := api.svc.AddTextbook(ctx.Request().Context(), stu.ID, *data)
	if err != nil {
		return trapNotFound(errors.Wrap(err, "adding textbook"))
	}
	return ctx.JSON(http.StatusCreated, tb)
}

func (api *studentApi) textbookPatch(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	data := new(student.TextbookProgress)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tb, err := api.svc.SetTextbookProgress(ctx.Request().Context(), stu.ID, ctx.Param("tid"), *data.Progress)
	if err != nil {
		return trapNotFound(errors.Wrap(err, "updating textbook progress"))
	}
	return ctx.JSON(http.StatusOK, tb)
}

func (api *studentApi) textbookDestroy(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteTextbook(ctx.Request().Context(), stu.ID, ctx.Param("tid")); err != nil {
		return trapNotFound(errors.Wrap(err, "deleting textbook"))
	}
	return ctx.NoContent(http.StatusNoContent)
}
