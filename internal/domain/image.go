package domain

type ImageKind int

const (
	ImageAbsent ImageKind = iota
	ImageLocal
	ImagePersisted
)

// LocalFile es un binario todavía no subido.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type PersistedImageRef struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// ImageAsset es una imagen local, una ya persistida, o ninguna.
type ImageAsset struct {
	Local     *LocalFile
	Persisted *PersistedImageRef
}

func LocalImage(f LocalFile) ImageAsset { return ImageAsset{Local: &f} }

func PersistedImage(ref PersistedImageRef) ImageAsset { return ImageAsset{Persisted: &ref} }

func (a ImageAsset) Kind() ImageKind {
	switch {
	case a.Local != nil:
		return ImageLocal
	case a.Persisted != nil:
		return ImagePersisted
	}
	return ImageAbsent
}

// UploadedImage es la respuesta de uploadImage.
type UploadedImage struct {
	ID   int64  `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

func (u UploadedImage) Ref() PersistedImageRef { return PersistedImageRef{ID: u.ID, URL: u.URL} }

// ImageResolution son las imágenes de variaciones ya subidas, por índice de
// fila y por firma de combinación.
type ImageResolution struct {
	ByIndex     map[int]PersistedImageRef
	BySignature map[string]PersistedImageRef
}

func (r ImageResolution) Lookup(index int, signature string) (PersistedImageRef, bool) {
	if ref, ok := r.ByIndex[index]; ok {
		return ref, true
	}
	if signature != "" {
		if ref, ok := r.BySignature[signature]; ok {
			return ref, true
		}
	}
	return PersistedImageRef{}, false
}
