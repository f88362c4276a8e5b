package validators

import "go.mongodb.org/mongo-driver/bson"

var PatientDocumentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"patient_ref",
			"kind",
			"file_name",
			"content",
			"uploaded_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"patient_ref": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"kind": bson.M{
				"bsonType": "string",
				"enum": []string{
					"xray",
					"referral",
					"lab_result",
					"note",
				},
			},

			"file_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 255,
			},

			"content": bson.M{
				"bsonType": "binData",
			},

			"findings": bson.M{
				"bsonType": "string",
			},

			"summary": bson.M{
				"bsonType": "string",
			},

			"uploaded_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
