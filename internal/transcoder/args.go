package transcoder

// Args describes a single encoder invocation.
type Args struct {
	Input      string
	Output     string
	Overwrite  bool
	DropVideo  bool
	AudioCodec string
	Format     string
}

// AACArgs returns the invocation that converts input to AAC audio in an
// M4A (ipod) container at output, dropping any video stream.
func AACArgs(input, output string) Args {
	return Args{
		Input:      input,
		Output:     output,
		Overwrite:  true,
		DropVideo:  true,
		AudioCodec: "aac",
		Format:     "ipod",
	}
}

// Build returns the argument vector, without the program name.
func (a Args) Build() []string {
	args := make([]string, 0, 10)
	if a.Overwrite {
		args = append(args, "-y")
	}
	args = append(args, "-i", a.Input)
	if a.DropVideo {
		args = append(args, "-vn")
	}
	if a.AudioCodec != "" {
		args = append(args, "-acodec", a.AudioCodec)
	}
	if a.Format != "" {
		args = append(args, "-f", a.Format)
	}
	return append(args, a.Output)
}
