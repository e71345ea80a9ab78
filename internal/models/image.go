package models

// Image references a binary asset held by the external asset store. AssetID
// is the store's handle for deletion; URL is the public location served to
// clients.
type Image struct {
	AssetID string `bson:"assetId" json:"assetId"`
	URL     string `bson:"url" json:"url"`
}
