package fetch

// corsCheck implements §4.5: given a response and the request that
// triggered it, decide whether the response passes CORS. It never mutates
// either argument and never performs I/O.
func corsCheck(req *Request, resp *Response) bool {
	allowOrigin := resp.Headers.Get("Access-Control-Allow-Origin")
	if allowOrigin == "" {
		return false
	}

	if req.CredentialsMode != CredentialsInclude && allowOrigin == "*" {
		return true
	}

	if allowOrigin != req.Origin.ASCIISerialization() {
		return false
	}

	if req.CredentialsMode == CredentialsInclude {
		return resp.Headers.Get("Access-Control-Allow-Credentials") == "true"
	}

	return true
}
