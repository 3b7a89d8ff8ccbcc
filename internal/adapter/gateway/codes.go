package gateway

import "strings"

// Well-known response codes of the processor.
const (
	// CodeApproved is the exact-approval code.
	CodeApproved = "00"
	// CodePartialApproval approves for less than the requested amount.
	CodePartialApproval = "10"
	// CodeDuplicate signals the step was already processed upstream.
	CodeDuplicate = "94"
	// CodeInvalidAuthentication signals the external authenticator never
	// notified the gateway of a completed verification.
	CodeInvalidAuthentication = "A3"
)

// timeoutSuspectCodes carry no definitive answer; the transaction must be
// assumed in flight and reversed like a transport timeout.
var timeoutSuspectCodes = map[string]bool{
	"19": true, // re-enter transaction
	"68": true, // response received too late
	"91": true, // issuer or switch inoperative
}

// responseMessages is the processor's code catalog, returned verbatim for
// user display and logs.
var responseMessages = map[string]string{
	"00": "Transaccion aprobada",
	"01": "Refierase al emisor",
	"02": "Refierase al emisor, condicion especial",
	"03": "Comercio invalido",
	"04": "Retenga la tarjeta",
	"05": "Transaccion rechazada",
	"06": "Error del emisor",
	"07": "Retenga la tarjeta, condicion especial",
	"08": "Aprobada con identificacion",
	"10": "Aprobacion parcial",
	"11": "Transaccion aprobada VIP",
	"12": "Transaccion invalida",
	"13": "Monto invalido",
	"14": "Numero de tarjeta invalido",
	"15": "Emisor no existe",
	"19": "Reingrese la transaccion",
	"21": "Sin accion tomada",
	"22": "Sospecha de mal funcionamiento",
	"25": "Registro no encontrado",
	"28": "Archivo no disponible temporalmente",
	"30": "Error de formato",
	"31": "Banco no soportado",
	"33": "Tarjeta expirada, retenga",
	"34": "Sospecha de fraude, retenga",
	"35": "Contacte al adquirente, retenga",
	"36": "Tarjeta restringida, retenga",
	"37": "Llame a seguridad del adquirente",
	"38": "Intentos de PIN excedidos, retenga",
	"39": "Cuenta de credito inexistente",
	"40": "Funcion no soportada",
	"41": "Tarjeta extraviada",
	"42": "Cuenta universal inexistente",
	"43": "Tarjeta robada",
	"44": "Cuenta de inversion inexistente",
	"51": "Fondos insuficientes",
	"52": "Cuenta de cheques inexistente",
	"53": "Cuenta de ahorros inexistente",
	"54": "Tarjeta expirada",
	"55": "PIN incorrecto",
	"56": "Registro de tarjeta inexistente",
	"57": "Transaccion no permitida al tarjetahabiente",
	"58": "Transaccion no permitida en terminal",
	"59": "Sospecha de fraude",
	"60": "Contacte al adquirente",
	"61": "Excede limite de retiro",
	"62": "Tarjeta restringida",
	"63": "Violacion de seguridad",
	"64": "Monto original invalido",
	"65": "Excede frecuencia de retiro",
	"66": "Llame a seguridad del adquirente",
	"67": "Retencion dura, tarjeta retenida en ATM",
	"68": "Respuesta recibida demasiado tarde",
	"75": "Intentos de PIN excedidos",
	"76": "Cuenta ya bloqueada, orden previa",
	"77": "Datos inconsistentes con el mensaje original",
	"78": "Cuenta bloqueada, primera transaccion",
	"79": "Cuenta ya conciliada",
	"80": "Fecha de transaccion invalida",
	"81": "Error criptografico de PIN",
	"82": "CVV incorrecto",
	"83": "No se puede verificar el PIN",
	"84": "Ciclo de vida invalido",
	"85": "Sin razon para rechazar",
	"86": "No se puede validar el PIN",
	"87": "Compra aprobada, cashback rechazado",
	"88": "Fallo criptografico",
	"89": "Fallo de autenticacion",
	"90": "Cierre de lote en proceso",
	"91": "Emisor o switch fuera de servicio",
	"92": "Destino no encontrado para ruteo",
	"93": "Transaccion no puede completarse, violacion de ley",
	"94": "Transaccion duplicada",
	"95": "Error de conciliacion",
	"96": "Mal funcionamiento del sistema",
	"A3": "Autenticacion del tarjetahabiente invalida",
	"N7": "CVV2 incorrecto",
	"P5": "Cambio de PIN rechazado",
	"Q1": "Autenticacion de tarjeta fallida",
	"R0": "Pago recurrente suspendido",
	"XA": "Reenviar a emisor",
	"XD": "Reenviar a emisor, condicion especial",
}

// IsApproved is true for the exact-approval and partial-authorization codes.
func IsApproved(code string) bool {
	return code == CodeApproved || code == CodePartialApproval
}

// IsPartial is true only for the partial-authorization code.
func IsPartial(code string) bool {
	return code == CodePartialApproval
}

// IsTimeoutSuspect reports codes that mean "no definitive answer, assume
// in-flight"; these require the same reversal path as a transport timeout.
func IsTimeoutSuspect(code string) bool {
	return timeoutSuspectCodes[code]
}

// IsDuplicate reports the "step already done" signal.
func IsDuplicate(code string) bool {
	return code == CodeDuplicate
}

// IsInvalidAuthentication reports the hard, non-retriable authentication
// failure signal.
func IsInvalidAuthentication(code string) bool {
	return code == CodeInvalidAuthentication
}

// IsInternal reports gateway-internal errors, which carry negative codes
// and usually indicate a callback-URL or credential misconfiguration
// rather than a card problem.
func IsInternal(code string) bool {
	return strings.HasPrefix(code, "-")
}

// Message looks up the human-readable catalog text for a response code.
func Message(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return "codigo desconocido: " + code
}
