package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		queues, err := app.FindCollectionByNameOrId("queues")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("queue_entries")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "queue",
				Required:     true,
				CollectionId: queues.Id,
				MaxSelect:    1,
				CascadeDelete: true,
			},
			&core.TextField{
				Name: "customer_id",
				Max:  100,
			},
			&core.TextField{
				Name:     "customer_name",
				Required: true,
				Max:      200,
			},
			&core.NumberField{
				Name:    "position",
				OnlyInt: true,
			},
			&core.NumberField{
				Name:    "seq",
				OnlyInt: true,
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					"waiting",
					"called",
					"checked_in",
					"completed",
					"cancelled",
					"no_show",
					"expired",
				},
			},
			&core.TextField{
				Name: "token",
				Max:  20,
			},
			&core.TextField{
				Name: "staff_id",
				Max:  100,
			},
			&core.TextField{
				Name: "service_type_id",
				Max:  100,
			},
			&core.NumberField{
				Name:    "duration_minutes",
				OnlyInt: true,
			},
			&core.DateField{Name: "entered_at"},
			&core.DateField{Name: "called_at"},
			&core.DateField{Name: "checked_in_at"},
			&core.DateField{Name: "completed_at"},
			&core.DateField{Name: "cancelled_at"},
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

		collection.AddIndex("idx_queue_entries_queue_seq", false, "queue, seq", "")
		collection.AddIndex("idx_queue_entries_status", false, "status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("queue_entries")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
