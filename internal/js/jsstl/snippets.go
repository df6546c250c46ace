package jsstl

// Runtime conventions shared by the snippets: null is null, numbers are
// numbers, arrays are arrays, tuples are arrays flagged with __isHogTuple and
// dictionaries are plain objects. Sequence indexes are 1-based.
var stdlib = Graph{
	// internal helpers

	"__isHogTuple": {Source: `
function __isHogTuple(obj) { return Array.isArray(obj) && obj.__isHogTuple === true }`},
	"__isHogDict": {Source: `
function __isHogDict(obj) { return obj !== null && typeof obj === 'object' && !Array.isArray(obj) }`},
	"__truthy": {Source: `
function __truthy(obj) {
    if (Array.isArray(obj)) { return obj.length > 0 }
    if (__isHogDict(obj)) { return Object.keys(obj).length > 0 }
    return !!obj
}`, Deps: []string{"__isHogDict"}},
	"__escapeString": {Source: `
function __escapeString(value) {
    const singles = { '\\': '\\\\', "'": "\\'", '\n': '\\n', '\r': '\\r', '\t': '\\t', '\0': '\\0' }
    return "'" + String(value).replace(/[\\'\n\r\t\0]/g, (c) => singles[c]) + "'"
}`},
	"__printHogValue": {Source: `
function __printHogValue(obj, marked = new Set()) {
    if (obj === null || obj === undefined) { return 'null' }
    if (typeof obj === 'string') { return __escapeString(obj) }
    if (typeof obj === 'number' || typeof obj === 'boolean') { return String(obj) }
    if (typeof obj === 'function') { return 'fn<' + (obj.name || 'lambda') + '>' }
    if (marked.has(obj)) { return 'null' }
    marked.add(obj)
    try {
        if (__isHogTuple(obj)) {
            if (obj.length < 2) { return 'tuple(' + obj.map((o) => __printHogValue(o, marked)).join(', ') + ')' }
            return '(' + obj.map((o) => __printHogValue(o, marked)).join(', ') + ')'
        }
        if (Array.isArray(obj)) { return '[' + obj.map((o) => __printHogValue(o, marked)).join(', ') + ']' }
        return '{' + Object.entries(obj).map(([k, v]) => __printHogValue(k, marked) + ': ' + __printHogValue(v, marked)).join(', ') + '}'
    } finally {
        marked.delete(obj)
    }
}`, Deps: []string{"__escapeString", "__isHogTuple"}},
	"__printHogStringOutput": {Source: `
function __printHogStringOutput(obj) { return typeof obj === 'string' ? obj : __printHogValue(obj) }`,
		Deps: []string{"__printHogValue"}},
	"__deepCopy": {Source: `
function __deepCopy(obj) {
    if (obj === null || typeof obj !== 'object') { return obj }
    if (Array.isArray(obj)) {
        const out = obj.map(__deepCopy)
        if (__isHogTuple(obj)) { out.__isHogTuple = true }
        return out
    }
    const out = {}
    for (const key of Object.keys(obj)) { out[key] = __deepCopy(obj[key]) }
    return out
}`, Deps: []string{"__isHogTuple"}},
	"__getGlobal": {Source: `
function __getGlobal(key) {
    const globals = globalThis.__hogGlobals
    return globals && Object.prototype.hasOwnProperty.call(globals, key) ? __deepCopy(globals[key]) : null
}`, Deps: []string{"__deepCopy"}},
	"__index": {Source: `
function __index(length, key) {
    if (typeof key !== 'number' || !Number.isInteger(key)) { return -1 }
    if (key === 0) { throw new Error('Index 0 is invalid, indexes start at 1') }
    return key > 0 ? key - 1 : length + key
}`},
	"__getProperty": {Source: `
function __getProperty(container, key) {
    if (container === null || container === undefined) { return null }
    if (Array.isArray(container) || typeof container === 'string') {
        const pos = __index(container.length, key)
        if (pos < 0 || pos >= container.length) {
            if (typeof key === 'number') { throw new Error('Index ' + key + ' out of range for a sequence of length ' + container.length) }
            return null
        }
        return container[pos]
    }
    if (__isHogDict(container)) { return Object.prototype.hasOwnProperty.call(container, key) ? container[key] : null }
    return null
}`, Deps: []string{"__index", "__isHogDict"}},
	"__getField": {Source: `
function __getField(container, key) {
    if (container === null || container === undefined) { return null }
    if (Array.isArray(container)) {
        const pos = __index(container.length, key)
        return pos < 0 || pos >= container.length ? null : container[pos]
    }
    if (__isHogDict(container)) { return Object.prototype.hasOwnProperty.call(container, key) ? container[key] : null }
    return null
}`, Deps: []string{"__index", "__isHogDict"}},
	"__setProperty": {Source: `
function __setProperty(container, key, value) {
    if (__isHogTuple(container)) { throw new Error('Cannot modify a tuple, tuples are immutable') }
    if (Array.isArray(container)) {
        const pos = __index(container.length, key)
        if (pos < 0 || pos >= container.length) { throw new Error('Index ' + key + ' out of range for a sequence of length ' + container.length) }
        container[pos] = value
        return
    }
    if (__isHogDict(container)) { container[key] = value; return }
    throw new Error('Cannot set property on ' + __x_typeof(container))
}`, Deps: []string{"__index", "__isHogDict", "__isHogTuple", "typeof"}},
	"__entries": {Source: `
function __entries(obj) {
    const k = keys(obj)
    const v = values(obj)
    return k.map((key, i) => [key, v[i]])
}`, Deps: []string{"keys", "values"}},
	"__in": {Source: `
function __in(needle, haystack) {
    if (haystack === null || haystack === undefined) { return false }
    if (typeof haystack === 'string') { return typeof needle === 'string' && haystack.includes(needle) }
    return has(haystack, needle)
}`, Deps: []string{"has"}},
	"__equal": {Source: `
function __equal(a, b) {
    if (a === b) { return true }
    if (a === null || b === null || a === undefined || b === undefined) { return (a ?? null) === (b ?? null) }
    if (Array.isArray(a) && Array.isArray(b)) {
        return a.length === b.length && a.every((v, i) => __equal(v, b[i]))
    }
    if (__isHogDict(a) && __isHogDict(b)) {
        const ka = Object.keys(a)
        return ka.length === Object.keys(b).length && ka.every((k) => Object.prototype.hasOwnProperty.call(b, k) && __equal(a[k], b[k]))
    }
    return false
}`, Deps: []string{"__isHogDict"}},
	"__like": {Source: `
function __like(str, pattern, caseInsensitive) {
    if (str === null || str === undefined || pattern === null || pattern === undefined) { return false }
    let re = ''
    for (const c of String(pattern)) {
        if (c === '%') { re += '[\\s\\S]*' } else if (c === '_') { re += '[\\s\\S]' } else { re += c.replace(/[.*+?^${}()|[\]\\]/g, '\\$&') }
    }
    return new RegExp('^' + re + '$', caseInsensitive ? 'i' : '').test(String(str))
}`},
	"__imatch": {Source: `
function __imatch(str, pattern) {
    if (str === null || str === undefined || pattern === null || pattern === undefined) { return false }
    return new RegExp(pattern, 'i').test(str)
}`},
	"__notMatch": {Source: `
function __notMatch(str, pattern) {
    if (str === null || str === undefined || pattern === null || pattern === undefined) { return false }
    return !match(str, pattern)
}`, Deps: []string{"match"}},
	"__notIMatch": {Source: `
function __notIMatch(str, pattern) {
    if (str === null || str === undefined || pattern === null || pattern === undefined) { return false }
    return !__imatch(str, pattern)
}`, Deps: []string{"__imatch"}},

	// strings

	"print": {Source: `
function print(...args) { console.log(...args.map(__printHogStringOutput)) }`,
		Deps: []string{"__printHogStringOutput"}},
	"toString": {Source: `
function toString(value) { return __printHogStringOutput(value) }`,
		Deps: []string{"__printHogStringOutput"}},
	"toInt": {Source: `
function toInt(value) {
    if (value === null || value === undefined) { return null }
    if (typeof value === 'boolean') { return value ? 1 : 0 }
    const n = typeof value === 'number' ? value : Number(String(value).trim())
    return Number.isFinite(n) ? Math.trunc(n) : null
}`},
	"toFloat": {Source: `
function toFloat(value) {
    if (value === null || value === undefined) { return null }
    if (typeof value === 'boolean') { return value ? 1 : 0 }
    const n = typeof value === 'number' ? value : Number(String(value).trim())
    return Number.isNaN(n) ? null : n
}`},
	"toUUID": {Source: `
function toUUID(value) {
    if (typeof value !== 'string') { return null }
    const re = /^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$/i
    return re.test(value) ? value.toLowerCase() : null
}`},
	"lower": {Source: `
function lower(value) { return value === null || value === undefined ? null : String(value).toLowerCase() }`},
	"upper": {Source: `
function upper(value) { return value === null || value === undefined ? null : String(value).toUpperCase() }`},
	"reverse": {Source: `
function reverse(value) { return value === null || value === undefined ? null : Array.from(String(value)).reverse().join('') }`},
	"__trimChars": {Source: `
function __trimChars(value, char, left, right) {
    if (value === null || value === undefined) { return null }
    let s = String(value)
    if (char === undefined || char === ' ') {
        return left && right ? s.trim() : left ? s.trimStart() : s.trimEnd()
    }
    while (left && s.startsWith(char)) { s = s.slice(char.length) }
    while (right && s.endsWith(char)) { s = s.slice(0, s.length - char.length) }
    return s
}`},
	"trim": {Source: `
function trim(value, char) { return __trimChars(value, char, true, true) }`, Deps: []string{"__trimChars"}},
	"trimLeft": {Source: `
function trimLeft(value, char) { return __trimChars(value, char, true, false) }`, Deps: []string{"__trimChars"}},
	"trimRight": {Source: `
function trimRight(value, char) { return __trimChars(value, char, false, true) }`, Deps: []string{"__trimChars"}},
	"concat": {Source: `
function concat(...args) { return args.map((a) => (a === null || a === undefined ? '' : __printHogStringOutput(a))).join('') }`,
		Deps: []string{"__printHogStringOutput"}},
	"match": {Source: `
function match(str, pattern) {
    if (str === null || str === undefined || pattern === null || pattern === undefined) { return false }
    return new RegExp(pattern).test(str)
}`},
	"like": {Source: `
function like(str, pattern) { return __like(str, pattern, false) }`, Deps: []string{"__like"}},
	"ilike": {Source: `
function ilike(str, pattern) { return __like(str, pattern, true) }`, Deps: []string{"__like"}},
	"notLike": {Source: `
function notLike(str, pattern) {
    if (str === null || str === undefined || pattern === null || pattern === undefined) { return false }
    return !__like(str, pattern, false)
}`, Deps: []string{"__like"}},
	"notILike": {Source: `
function notILike(str, pattern) {
    if (str === null || str === undefined || pattern === null || pattern === undefined) { return false }
    return !__like(str, pattern, true)
}`, Deps: []string{"__like"}},
	"replaceOne": {Source: `
function replaceOne(str, searchValue, replaceValue) { return String(str).replace(searchValue, () => replaceValue) }`},
	"replaceAll": {Source: `
function replaceAll(str, searchValue, replaceValue) { return String(str).split(searchValue).join(replaceValue) }`},
	"splitByString": {Source: `
function splitByString(separator, str, maxSplits) {
    const parts = String(str).split(separator)
    return maxSplits === undefined || maxSplits === null ? parts : parts.slice(0, maxSplits)
}`},
	"position": {Source: `
function position(str, elem) {
    if (typeof str !== 'string') { return 0 }
    const idx = str.indexOf(String(elem))
    return idx === -1 ? 0 : Array.from(str.slice(0, idx)).length + 1
}`},

	// encoding

	"jsonParse": {Source: `
function jsonParse(str) { return JSON.parse(str) }`},
	"jsonStringify": {Source: `
function jsonStringify(value, spacing) {
    const replacer = (key, val) => {
        if (typeof val === 'function') { throw new Error('Cannot stringify a function') }
        return val === undefined ? null : val
    }
    return spacing && spacing > 0 ? JSON.stringify(value, replacer, spacing) : JSON.stringify(value, replacer)
}`},
	"base64Encode": {Source: `
function base64Encode(str) { return Buffer.from(str).toString('base64') }`},
	"base64Decode": {Source: `
function base64Decode(str) { return Buffer.from(str, 'base64').toString() }`},
	"tryBase64Decode": {Source: `
function tryBase64Decode(str) {
    try { return Buffer.from(str, 'base64').toString() } catch (e) { return '' }
}`},
	"encodeURLComponent": {Source: `
function encodeURLComponent(str) { return encodeURIComponent(str) }`},
	"decodeURLComponent": {Source: `
function decodeURLComponent(str) { return decodeURIComponent(str) }`},
	"generateUUIDv4": {Source: `
function generateUUIDv4() { return crypto.randomUUID() }`},

	// collections

	"length": {Source: `
function length(value) {
    if (value === null || value === undefined) { return 0 }
    if (typeof value === 'string') { return Array.from(value).length }
    if (Array.isArray(value)) { return value.length }
    return Object.keys(value).length
}`},
	"empty": {Source: `
function empty(value) { return !__truthy(value) }`, Deps: []string{"__truthy"}},
	"notEmpty": {Source: `
function notEmpty(value) { return __truthy(value) }`, Deps: []string{"__truthy"}},
	"keys": {Source: `
function keys(obj) {
    if (obj === null || obj === undefined) { return [] }
    if (Array.isArray(obj)) { return obj.map((_, i) => i) }
    return Object.keys(obj)
}`},
	"values": {Source: `
function values(obj) {
    if (obj === null || obj === undefined) { return [] }
    if (Array.isArray(obj)) { return [...obj] }
    return Object.values(obj)
}`},
	"has": {Source: `
function has(arr, elem) {
    if (arr === null || arr === undefined) { return false }
    if (Array.isArray(arr)) { return arr.some((v) => __equal(v, elem)) }
    if (__isHogDict(arr)) { return Object.prototype.hasOwnProperty.call(arr, elem) }
    throw new Error('function has: argument 1 must be an array or an object')
}`, Deps: []string{"__equal", "__isHogDict"}},
	"indexOf": {Source: `
function indexOf(arr, elem) {
    if (arr === null || arr === undefined) { return null }
    return arr.findIndex((v) => __equal(v, elem)) + 1
}`, Deps: []string{"__equal"}},
	"arrayPushBack": {Source: `
function arrayPushBack(arr, item) { return [...(arr ?? []), item] }`},
	"arrayPushFront": {Source: `
function arrayPushFront(arr, item) { return [item, ...(arr ?? [])] }`},
	"arrayPopBack": {Source: `
function arrayPopBack(arr) { return (arr ?? []).slice(0, -1) }`},
	"arrayPopFront": {Source: `
function arrayPopFront(arr) { return (arr ?? []).slice(1) }`},
	"__compare": {Source: `
function __compare(a, b) { return a < b ? -1 : a > b ? 1 : 0 }`},
	"arraySort": {Source: `
function arraySort(arr) { return [...(arr ?? [])].sort(__compare) }`, Deps: []string{"__compare"}},
	"arrayReverseSort": {Source: `
function arrayReverseSort(arr) { return [...(arr ?? [])].sort((a, b) => __compare(b, a)) }`, Deps: []string{"__compare"}},
	"arrayReverse": {Source: `
function arrayReverse(arr) { return [...(arr ?? [])].reverse() }`},
	"arrayStringConcat": {Source: `
function arrayStringConcat(arr, separator = '') { return (arr ?? []).map(__printHogStringOutput).join(separator) }`,
		Deps: []string{"__printHogStringOutput"}},
	"tuple": {Source: `
function tuple(...args) {
    const t = args.slice()
    t.__isHogTuple = true
    return t
}`},

	// math

	"round": {Source: `
function round(value) {
    const floor = Math.floor(value)
    const diff = value - floor
    if (diff !== 0.5) { return Math.round(value) }
    return floor % 2 === 0 ? floor : floor + 1
}`},
	"floor": {Source: `
function floor(value) { return Math.floor(value) }`},
	"ceil": {Source: `
function ceil(value) { return Math.ceil(value) }`},
	"abs": {Source: `
function abs(value) { return Math.abs(value) }`},
	"min2": {Source: `
function min2(a, b) { return a < b ? a : b }`},
	"max2": {Source: `
function max2(a, b) { return a > b ? a : b }`},

	// system

	"ifNull": {Source: `
function ifNull(value, defaultValue) { return value ?? defaultValue }`},
	"typeof": {Source: `
function __x_typeof(value) {
    if (value === null || value === undefined) { return 'null' }
    if (__isHogTuple(value)) { return 'tuple' }
    if (Array.isArray(value)) { return 'array' }
    if (typeof value === 'object') { return 'object' }
    if (typeof value === 'number') { return Number.isInteger(value) ? 'integer' : 'float' }
    if (typeof value === 'function') { return 'function' }
    return typeof value
}`, Deps: []string{"__isHogTuple"}},
	"run": {Source: `
function run(query, ...args) {
    if (typeof globalThis.__hogRunQuery !== 'function') { throw new Error('no team context available') }
    return globalThis.__hogRunQuery(query, args)
}`},
}
