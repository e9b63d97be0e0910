package domain

type Stage string

const (
	StageIdle               Stage = ""
	StageUploadingImages    Stage = "uploading-images"
	StageCreatingProduct    Stage = "creating-product"
	StageCreatingVariations Stage = "creating-variations"
	StageComplete           Stage = "complete"
	StageError              Stage = "error"
)

type ProgressState struct {
	Stage             Stage  `json:"stage"`
	Percentage        int    `json:"percentage"`
	ImagesUploaded    int    `json:"images_uploaded"`
	TotalImages       int    `json:"total_images"`
	VariationsCreated int    `json:"variations_created"`
	TotalVariations   int    `json:"total_variations"`
	Error             string `json:"error,omitempty"`
}
