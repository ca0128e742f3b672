// globals.go — installs every Web Platform global this module provides
// into the guest VM (C1/C2/C3/C4/C6/C7): Headers, URL/URLSearchParams,
// Blob/File, FormData, AbortController/AbortSignal, Request/Response,
// ReadableStream/WritableStream/TransformStream, fetch, and serve. Every
// constructor here is registered through newConstructor, which gives it a
// stable .prototype so instanceof holds, and Headers/FormData/
// URLSearchParams/ReadableStream are iterable (for...of / for await...of).
package guest

func (r *Runtime) installGlobals() {
	r.installHeaders()
	r.installURL()
	r.installBlob()
	r.installFormData()
	r.installAbort()
	r.installStreamShims()
	r.installRequest()
	r.installResponse()
	r.installFetch()
	r.installServe()
}
