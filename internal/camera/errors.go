package camera

import "errors"

// ErrCameraBusy is returned by Subscribe while another subscriber is
// attached. The camera is held by one scan session at a time.
var ErrCameraBusy = errors.New("camera already has a subscriber")
