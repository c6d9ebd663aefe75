package integrations

// Sprite is an encoded image ready to be embedded
type Sprite struct {
	Content     []byte
	ContentType string
}

type Processor interface {
	Process(image []byte) (Sprite, error)
}
