package capture

type Format string

const (
	FormatEAN13   Format = "ean_13"
	FormatEAN8    Format = "ean_8"
	FormatUPCA    Format = "upc_a"
	FormatUPCE    Format = "upc_e"
	FormatCode128 Format = "code_128"
	FormatCode39  Format = "code_39"
	FormatCode93  Format = "code_93"
	FormatITF     Format = "itf"
	FormatCodabar Format = "codabar"
	FormatQRCode  Format = "qr_code"
)

// DefaultFormats is the symbology set enabled for both strategies.
var DefaultFormats = []Format{
	FormatEAN13, FormatEAN8, FormatUPCA, FormatUPCE,
	FormatCode128, FormatCode39, FormatCode93,
	FormatITF, FormatCodabar, FormatQRCode,
}
