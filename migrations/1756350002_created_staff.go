package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		locations, err := app.FindCollectionByNameOrId("locations")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("staff")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "location",
				Required:     true,
				CollectionId: locations.Id,
				MaxSelect:    1,
			},
			&core.TextField{
				Name:     "name",
				Required: true,
				Max:      200,
			},
			&core.BoolField{
				Name: "active",
			},
			&core.BoolField{
				Name: "on_break",
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		collection.AddIndex("idx_staff_location", false, "location", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("staff")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
