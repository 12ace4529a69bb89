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

		collection := core.NewBaseCollection("queues")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "location",
				Required:     true,
				CollectionId: locations.Id,
				MaxSelect:    1,
			},
			&core.NumberField{
				Name:    "max_size",
				OnlyInt: true,
			},
			&core.NumberField{
				Name:    "late_cap_minutes",
				OnlyInt: true,
			},
			&core.BoolField{
				Name: "active",
			},
			&core.TextField{
				Name: "token_prefix",
				Max:  5,
			},
			&core.NumberField{
				Name:    "token_seq",
				OnlyInt: true,
			},
			&core.NumberField{
				Name:    "version",
				OnlyInt: true,
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

		collection.AddIndex("idx_queues_location_active", false, "location, active", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("queues")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
