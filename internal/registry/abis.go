package registry

// DSACastABI is the account entrypoint a compiled spell is cast through.
const DSACastABI = `[
	{"name":"cast","type":"function","stateMutability":"payable","inputs":[{"name":"_targetNames","type":"string[]"},{"name":"_datas","type":"bytes[]"},{"name":"_origin","type":"address"}],"outputs":[{"name":"","type":"bytes32"}]}
]`
