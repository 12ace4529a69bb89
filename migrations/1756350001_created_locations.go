package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		organizations, err := app.FindCollectionByNameOrId("organizations")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("locations")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "organization",
				Required:     true,
				CollectionId: organizations.Id,
				MaxSelect:    1,
			},
			&core.TextField{
				Name:     "name",
				Required: true,
				Max:      200,
			},
			&core.TextField{
				Name: "address",
				Max:  500,
			},
			&core.NumberField{
				Name:    "default_service_minutes",
				OnlyInt: false,
			},
			&core.TextField{
				Name: "kiosk_key_hash",
				Max:  100,
			},
			&core.BoolField{
				Name: "active",
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

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("locations")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
