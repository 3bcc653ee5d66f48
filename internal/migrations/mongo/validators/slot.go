package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"resource_id",
			"date_key",
			"slot_index",
			"status",
			"locked_at",
			"expires_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			// "<resource_id>/<date_key>/<slot_index>"
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 5,
			},

			"resource_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
				"pattern":   "^[^/]+$",
			},

			"date_key": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 32,
				"pattern":   "^[^/]+$",
			},

			"slot_index": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"locked",
					"booked",
				},
			},

			"locked_by": bson.M{
				"bsonType": "string",
			},

			"locked_at": bson.M{
				"bsonType": "date",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"booked_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
