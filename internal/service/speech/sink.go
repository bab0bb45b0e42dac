package speech

// CallbackSink 把音频回调适配为 io.Writer，每个音频帧调用一次
type CallbackSink func(chunk []byte) error

func (f CallbackSink) Write(p []byte) (int, error) {
	if err := f(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
