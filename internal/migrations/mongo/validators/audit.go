package validators

import "go.mongodb.org/mongo-driver/bson"

var AuditLogValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"action", "created_at"},
		"properties": bson.M{
			"action": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"admin_uid": bson.M{
				"bsonType": []string{"string", "null"},
			},
			"params": bson.M{
				"bsonType": []string{"object", "null"},
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
